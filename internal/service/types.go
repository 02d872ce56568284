package service

import "github.com/vanshika/socialnet/internal/domain"

// UserInput is the inbound payload for registering a user.
type UserInput struct {
	Name     string `json:"name" yaml:"name" validate:"required,max=100"`
	Username string `json:"username" yaml:"username" validate:"required,min=3,max=32,excludesall= @"`
	Email    string `json:"email" yaml:"email" validate:"required,email,max=254"`
	Password string `json:"password" yaml:"password" validate:"required,min=8,max=128"`
}

// UserKey names a user by the email and username its identity derives from.
type UserKey struct {
	Email    string `json:"email" yaml:"email" validate:"required,email,max=254"`
	Username string `json:"username" yaml:"username" validate:"required,min=3,max=32,excludesall= @"`
}

// Identity returns the graph identity of the key after normalisation.
func (k UserKey) Identity() domain.Identity {
	n := k.normalized()
	return domain.NewIdentity(n.Email, n.Username)
}

func (k UserKey) normalized() UserKey {
	return UserKey{Email: normalizeEmail(k.Email), Username: normalizeUsername(k.Username)}
}

// FriendshipInput names both ends of a friendship.
type FriendshipInput struct {
	A UserKey `json:"a" yaml:"a" validate:"required"`
	B UserKey `json:"b" yaml:"b" validate:"required"`
}

func (in FriendshipInput) normalized() FriendshipInput {
	return FriendshipInput{A: in.A.normalized(), B: in.B.normalized()}
}

// Key returns the UserKey of the user being registered.
func (in UserInput) Key() UserKey {
	return UserKey{Email: in.Email, Username: in.Username}
}

func (in UserInput) normalized() UserInput {
	return UserInput{
		Name:     sanitizeString(in.Name),
		Username: normalizeUsername(in.Username),
		Email:    normalizeEmail(in.Email),
		Password: in.Password,
	}
}

// Credentials names a user and carries the password to check.
type Credentials struct {
	Email    string `json:"email" yaml:"email" validate:"required,email,max=254"`
	Username string `json:"username" yaml:"username" validate:"required,min=3,max=32,excludesall= @"`
	Password string `json:"password" yaml:"password" validate:"required,max=128"`
}

// Key returns the UserKey the credentials refer to.
func (c Credentials) Key() UserKey {
	return UserKey{Email: c.Email, Username: c.Username}
}

func (c Credentials) normalized() Credentials {
	return Credentials{
		Email:    normalizeEmail(c.Email),
		Username: normalizeUsername(c.Username),
		Password: c.Password,
	}
}
