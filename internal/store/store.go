// Package store persists named collections of records. A collection is
// always read and written as a whole: Load returns every record, Save
// replaces every record.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names used by the service.
const (
	Users    = "users"
	Articles = "articles"
)

var (
	// ErrIO reports that durable storage could not be read or written.
	ErrIO = errors.New("store i/o failure")
	// ErrCorrupt reports a collection whose stored form is not a well-formed
	// array of records.
	ErrCorrupt = errors.New("store corrupt")
)

// Store loads and saves whole collections.
//
// Load reflects the most recent successful Save for the same collection and
// never serves cached data. Save either replaces the collection entirely or
// fails leaving the previous contents in place.
type Store interface {
	Load(ctx context.Context, collection string) ([]json.RawMessage, error)
	Save(ctx context.Context, collection string, records []json.RawMessage) error
}

// LoadAll loads a collection and decodes every record into T. A record T
// refuses is ErrCorrupt; models.User and models.Article accept any
// well-formed element.
func LoadAll[T any](ctx context.Context, s Store, collection string) ([]T, error) {
	raw, err := s.Load(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("%w: %s record %d: %v", ErrCorrupt, collection, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// SaveAll encodes records and replaces the collection with them.
func SaveAll[T any](ctx context.Context, s Store, collection string, records []T) error {
	raw := make([]json.RawMessage, 0, len(records))
	for i, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode %s record %d: %w", collection, i, err)
		}
		raw = append(raw, b)
	}
	return s.Save(ctx, collection, raw)
}

// encode renders a collection the way it is kept on disk: a JSON array
// indented with two spaces.
func encode(records []json.RawMessage) ([]byte, error) {
	if records == nil {
		records = []json.RawMessage{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// decode parses a stored collection. Empty input is an empty collection.
func decode(collection string, data []byte) ([]json.RawMessage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []json.RawMessage{}, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, collection, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}
