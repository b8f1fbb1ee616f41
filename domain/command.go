package domain

import (
	"fmt"
	"strings"

	"mwalimu-chat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// PostMessageCommand is a client intent to publish. Body is kept verbatim,
// only its trimmed form is validated.
type PostMessageCommand struct {
	Author string
	Body   string
}

// Limits bound the size of a post. Zero means unlimited.
type Limits struct {
	MaxContentLength int
	MaxAuthorLength  int
}

type trimmedPost struct {
	Body string `validate:"required"`
}

// Normalize applies the default author when the display name is blank.
func (c PostMessageCommand) Normalize(defaultAuthor string) PostMessageCommand {
	if strings.TrimSpace(c.Author) == "" {
		c.Author = defaultAuthor
	}
	return c
}

func (c PostMessageCommand) Validate(limits Limits) error {
	post := trimmedPost{Body: strings.TrimSpace(c.Body)}
	if err := validate.Struct(post); err != nil {
		return fmt.Errorf("%w: empty body", errors.ErrInvalidMessage)
	}
	if limits.MaxContentLength > 0 {
		if err := validate.Var(c.Body, fmt.Sprintf("max=%d", limits.MaxContentLength)); err != nil {
			return fmt.Errorf("%w: body longer than %d characters", errors.ErrInvalidMessage, limits.MaxContentLength)
		}
	}
	if limits.MaxAuthorLength > 0 {
		if err := validate.Var(c.Author, fmt.Sprintf("max=%d", limits.MaxAuthorLength)); err != nil {
			return fmt.Errorf("%w: author longer than %d characters", errors.ErrInvalidMessage, limits.MaxAuthorLength)
		}
	}
	return nil
}
