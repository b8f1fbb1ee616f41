package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"mwalimu-chat/domain"
	"mwalimu-chat/domain/event"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type printer struct {
	out     io.Writer
	colours bool
}

func (p printer) paint(style color.Style, s string) string {
	if !p.colours {
		return s
	}
	return style.Render(s)
}

// history prints the replay as a borderless table, oldest first.
func (p printer) history(messages []domain.Message) {
	if len(messages) == 0 {
		_, _ = fmt.Fprintln(p.out, p.paint(color.New(color.FgGray), "No messages yet"))
		return
	}
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Seq", "Time", "Author", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, m := range messages {
		table.Append([]string{
			strconv.FormatUint(m.Seq, 10),
			m.CreatedAt.Local().Format(time.TimeOnly),
			m.Author,
			m.Body,
		})
	}
	table.Render()
}

func (p printer) event(e event.Event) {
	switch e := e.(type) {
	case event.History:
		p.history(e.Messages)
	case event.MessagePublished:
		m := e.Message
		_, _ = fmt.Fprintf(p.out, "%s %s %s\n",
			p.paint(color.New(color.FgGray), m.CreatedAt.Local().Format(time.TimeOnly)),
			p.paint(color.New(color.FgGreen, color.OpBold), m.Author+":"),
			m.Body)
	case event.ParticipantCount:
		_, _ = fmt.Fprintln(p.out, p.paint(color.New(color.FgCyan), fmt.Sprintf("● %d online", e.Count)))
	case event.Rejected:
		_, _ = fmt.Fprintln(p.out, p.paint(color.New(color.FgRed), "rejected: "+e.Reason))
	}
}
