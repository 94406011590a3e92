// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxUserNameLen = 36

var (
	ErrUserNameEmpty   = errors.New("user name empty")
	ErrUserNameTooLong = errors.New("user name too long")
)

// UserID is stable across reconnects; ConnID changes per connection.
type (
	UserID string
	ConnID string
)

type User struct {
	ID   UserID `json:"userId"`
	Name string `json:"userName"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, name string) (*User, error) {
	if len(name) == 0 {
		return nil, ErrUserNameEmpty
	}
	if len(name) > MaxUserNameLen {
		return nil, ErrUserNameTooLong
	}
	return &User{ID: id, Name: name}, nil
}
