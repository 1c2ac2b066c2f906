package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ArticleID is the numeric identifier of an article.
// Stored ids decode from either a JSON number or a numeric string.
type ArticleID int64

// UnmarshalJSON accepts 3, 3.0 and "3".
func (id *ArticleID) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	v, ok := ParseArticleID(raw)
	if !ok {
		return fmt.Errorf("invalid article id %s", string(b))
	}
	*id = v
	return nil
}

// String returns the canonical form used for id comparison.
func (id ArticleID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseArticleID normalizes an id received from a transport. Surrounding
// whitespace is ignored and integral numbers in any numeric notation match,
// so "3", " 3 " and "3.0" all yield 3.
func ParseArticleID(raw string) (ArticleID, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ArticleID(v), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return ArticleID(f), true
}

// Article represents one element of the `articles` collection.
//
// Title and Content hold whatever JSON value was stored or sent; nil means
// the key is absent and it is left out when the article is written. Keys
// other than id, title and content are kept in Extra so that an update
// writes them back untouched.
type Article struct {
	ID      ArticleID                  `json:"id"`
	Title   json.RawMessage            `json:"title,omitempty"`
	Content json.RawMessage            `json:"content,omitempty"`
	Extra   map[string]json.RawMessage `json:"-"`

	rawID  json.RawMessage // stored id that is not an integral number
	noID   bool            // stored record has no id key
	opaque json.RawMessage // stored element that is not a JSON object
}

var articleKeys = map[string]bool{"id": true, "title": true, "content": true}

// HasID reports whether the article carries an integral id. Articles
// without one never match a lookup.
func (a Article) HasID() bool {
	return a.opaque == nil && a.rawID == nil && !a.noID
}

// MarshalJSON writes id, title and content first, then any extra keys in
// sorted order. Stored records that did not decode cleanly are written
// back as they were read.
func (a Article) MarshalJSON() ([]byte, error) {
	if a.opaque != nil {
		return a.opaque, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, val []byte) error {
		name, err := json.Marshal(key)
		if err != nil {
			return err
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	switch {
	case a.rawID != nil:
		_ = write("id", a.rawID)
	case !a.noID:
		_ = write("id", []byte(a.ID.String()))
	}
	if a.Title != nil {
		_ = write("title", a.Title)
	}
	if a.Content != nil {
		_ = write("content", a.Content)
	}
	keys := make([]string, 0, len(a.Extra))
	for k := range a.Extra {
		if !articleKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, a.Extra[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON is the inverse of MarshalJSON. It never rejects a
// well-formed value: a non-object element or an id that is not an integral
// number is kept verbatim instead.
func (a *Article) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil || fields == nil {
		*a = Article{opaque: append(json.RawMessage(nil), b...)}
		return nil
	}
	var out Article
	if v, ok := fields["id"]; !ok {
		out.noID = true
	} else if err := json.Unmarshal(v, &out.ID); err != nil {
		out.ID, out.rawID = 0, v
	}
	out.Title = fields["title"]
	out.Content = fields["content"]
	for k, v := range fields {
		if articleKeys[k] {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}
	*a = out
	return nil
}
