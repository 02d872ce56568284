package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrMismatchedPassword = errors.New("password does not match hash")
	ErrInvalidHash        = errors.New("invalid argon2 hash format")
	ErrIncompatibleHash   = errors.New("incompatible argon2 version")
)

// Argon2Params tunes the argon2id key derivation.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follows the OWASP baseline for argon2id.
var DefaultParams = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2Hasher hashes passwords with argon2id and encodes them in PHC form:
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
type Argon2Hasher struct {
	params Argon2Params
}

// NewArgon2Hasher returns a hasher using params, or DefaultParams when nil.
func NewArgon2Hasher(params *Argon2Params) *Argon2Hasher {
	p := DefaultParams
	if params != nil {
		p = *params
	}
	return &Argon2Hasher{params: p}
}

// Hash derives a salted hash of password.
func (a *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.params.Iterations, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.params.Memory, a.params.Iterations, a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare checks password against an encoded hash using the parameters the
// hash was created with.
func (a *Argon2Hasher) Compare(encoded, password string) error {
	p, salt, key, err := decodeHash(encoded)
	if err != nil {
		return err
	}

	other := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	if subtle.ConstantTimeCompare(key, other) != 1 {
		return ErrMismatchedPassword
	}
	return nil
}

func decodeHash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %v", ErrInvalidHash, err)
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}

// PlainHasher stores passwords unchanged. It exists for fixtures and local
// datasets where hashing cost is unwanted.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlainHasher) Compare(stored, password string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return ErrMismatchedPassword
	}
	return nil
}
