package repository

import "errors"

// Sentinel errors shared by every store implementation.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrFriendshipExists   = errors.New("friendship already exists")
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrSelfFriendship     = errors.New("a user cannot befriend themselves")
)
