package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// User represents a registered account.
// It maps to one element of the `users` collection; the bcrypt hash is kept
// under the `password` key.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password"`
	IsAdmin      bool   `json:"isAdmin"`

	stored json.RawMessage // record as read from the collection
}

type userRecord struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password"`
	IsAdmin      bool   `json:"isAdmin"`
}

// MarshalJSON writes a user read from storage back exactly as it was read;
// users are never modified once registered.
func (u User) MarshalJSON() ([]byte, error) {
	if u.stored != nil {
		return u.stored, nil
	}
	return json.Marshal(userRecord{Username: u.Username, PasswordHash: u.PasswordHash, IsAdmin: u.IsAdmin})
}

// UnmarshalJSON reads a stored user without rejecting odd field types: a
// username or password that is not a string reads as "" and isAdmin is
// read by truthiness.
func (u *User) UnmarshalJSON(b []byte) error {
	out := User{stored: append(json.RawMessage(nil), b...)}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err == nil {
		out.Username, _ = stringValue(fields["username"])
		out.PasswordHash, _ = stringValue(fields["password"])
		out.IsAdmin = Truthy(fields["isAdmin"])
	}
	*u = out
	return nil
}

// Truthy reports whether a JSON value counts as true in JavaScript terms:
// false, null, 0, "" and an absent value are false, everything else is true.
func Truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't', '[', '{':
		return true
	case '"':
		s, _ := stringValue(raw)
		return s != ""
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	return err == nil && f != 0
}

func stringValue(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}
