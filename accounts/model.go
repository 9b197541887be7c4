package accounts

import (
	"bytes"
	"encoding/json"
	"errors"
)

// RegisterRequest is the body sent to the Account Service
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is the successful registration reply
type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// User is the identity record returned by the Account Service. Its shape
// belongs to the service, so it is kept as raw JSON.
type User json.RawMessage

// MarshalJSON returns the raw record, or null when empty
func (u User) MarshalJSON() ([]byte, error) {
	if len(u) == 0 {
		return []byte("null"), nil
	}
	return u, nil
}

// UnmarshalJSON keeps a copy of the raw record
func (u *User) UnmarshalJSON(data []byte) error {
	if u == nil {
		return errors.New("accounts.User: UnmarshalJSON on nil pointer")
	}
	*u = append((*u)[0:0], data...)
	return nil
}

// Decode unmarshals the record into v
func (u User) Decode(v any) error {
	return json.Unmarshal(u, v)
}

// IsZero reports whether the record is missing or null
func (u User) IsZero() bool {
	trimmed := bytes.TrimSpace(u)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Equal compares two records semantically, ignoring key order and spacing
func (u User) Equal(other User) bool {
	var a, b any
	if err := json.Unmarshal(u, &a); err != nil {
		return false
	}
	if err := json.Unmarshal(other, &b); err != nil {
		return false
	}
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return bytes.Equal(ab, bb)
}

// String returns the raw JSON
func (u User) String() string {
	return string(u)
}
