package repositories

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"mwalimu-chat/contract"
	"mwalimu-chat/domain"
	"mwalimu-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"

	messagePrefix = "msg:"
)

var _ contract.IHistory = (*BadgerHistory)(nil)

// BadgerHistory stores the history in a BadgerDB, opened in memory by the server.
// Keys are "msg:{position:019d}:{uuid}" so that a prefix scan returns messages
// in acceptance order regardless of their timestamps.
type BadgerHistory struct {
	mu       sync.Mutex
	db       *badger.DB
	log      *slog.Logger
	maxSize  int
	position uint64
	size     int
}

func NewBadgerHistory(db *badger.DB, log *slog.Logger, maxSize int) *BadgerHistory {
	return &BadgerHistory{db: db, log: log, maxSize: maxSize}
}

// OpenInMemoryBadger opens a BadgerDB that never touches the disk.
func OpenInMemoryBadger() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
}

// NewHistory builds the history buffer for the configured backend.
// The returned close function releases the backend resources.
func NewHistory(backend string, log *slog.Logger, maxSize int) (contract.IHistory, func() error, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryHistory(maxSize), func() error { return nil }, nil
	case BackendBadger:
		db, err := OpenInMemoryBadger()
		if err != nil {
			return nil, nil, fmt.Errorf("badger opening failed: %w", err)
		}
		return NewBadgerHistory(db, log, maxSize), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", errors.ErrUnknownBackend, backend)
	}
}

// Append persists a message then evicts the oldest ones past maxSize.
func (h *BadgerHistory) Append(message domain.Message) error {
	bytes, err := encodeMessage(message)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	position := h.position + 1
	err = h.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(position, message.ID), bytes); err != nil {
			return err
		}
		if h.maxSize > 0 && h.size+1 > h.maxSize {
			return h.evictOldest(txn, h.size+1-h.maxSize)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing message %s: %w", message.ID, err)
	}

	h.position = position
	h.size++
	if h.maxSize > 0 && h.size > h.maxSize {
		h.size = h.maxSize
	}
	return nil
}

// evictOldest deletes the n first keys of the prefix.
func (h *BadgerHistory) evictOldest(txn *badger.Txn, n int) error {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	prefix := []byte(messagePrefix)
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix) && len(keys) < n; it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	h.log.Debug("Evicted oldest messages", "count", len(keys))
	return nil
}

// Recent scans the prefix backwards from the newest key and stops at limit,
// then restores the oldest-first order.
func (h *BadgerHistory) Recent(limit int) ([]domain.Message, error) {
	var values [][]byte
	err := h.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append([]byte(messagePrefix), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(values) == limit {
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(values))
	for _, value := range values {
		message, err := decodeMessage(value)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	slices.Reverse(messages)
	return messages, nil
}

// Len is tracked in memory next to the writes, so it never scans the store.
func (h *BadgerHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

func messageKey(position uint64, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, position, id))
}

func encodeMessage(message domain.Message) ([]byte, error) {
	record, err := structpb.NewStruct(map[string]any{
		"id":         message.ID.String(),
		"seq":        strconv.FormatUint(message.Seq, 10),
		"author":     message.Author,
		"body":       message.Body,
		"created_at": message.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(record)
}

func decodeMessage(value []byte) (domain.Message, error) {
	var record structpb.Struct
	if err := proto.Unmarshal(value, &record); err != nil {
		return domain.Message{}, err
	}
	fields := record.GetFields()

	id, err := uuid.Parse(fields["id"].GetStringValue())
	if err != nil {
		return domain.Message{}, err
	}
	seq, err := strconv.ParseUint(fields["seq"].GetStringValue(), 10, 64)
	if err != nil {
		return domain.Message{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"].GetStringValue())
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        id,
		Seq:       seq,
		Author:    fields["author"].GetStringValue(),
		Body:      fields["body"].GetStringValue(),
		CreatedAt: createdAt,
	}, nil
}
