package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPasswordHash         = errors.New("invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
)

// Limits on parameters read back from a configured hash. A hash asking for
// more memory than this would stall every authenticated request.
const (
	maxArgon2Memory      = 1024 * 1024 // KiB
	maxArgon2Iterations  = 16
	minArgon2SaltLength  = 8
	minArgon2KeyLength   = 16
	passwordHashSections = 6
)

// Argon2idParams tunes password hashing.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

func (p Argon2idParams) validate() error {
	switch {
	case p.Memory == 0 || p.Memory > maxArgon2Memory:
		return fmt.Errorf("argon2id memory %d KiB out of range", p.Memory)
	case p.Iterations == 0 || p.Iterations > maxArgon2Iterations:
		return fmt.Errorf("argon2id iterations %d out of range", p.Iterations)
	case p.Parallelism == 0:
		return errors.New("argon2id parallelism must be positive")
	case p.SaltLength < minArgon2SaltLength:
		return fmt.Errorf("argon2id salt of %d bytes is too short", p.SaltLength)
	case p.KeyLength < minArgon2KeyLength:
		return fmt.Errorf("argon2id key of %d bytes is too short", p.KeyLength)
	}
	return nil
}

// passwordHash is the decoded form of the credential kept in configuration:
// $argon2id$v=19$m=<KiB>,t=<iterations>,p=<lanes>$<salt>$<key>.
type passwordHash struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (h passwordHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

func (h passwordHash) matches(password string) bool {
	candidate := argon2.IDKey([]byte(password), h.salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
	return subtle.ConstantTimeCompare(h.key, candidate) == 1
}

func parsePasswordHash(encoded string) (passwordHash, error) {
	sections := strings.Split(encoded, "$")
	if len(sections) != passwordHashSections || sections[0] != "" || sections[1] != "argon2id" {
		return passwordHash{}, ErrInvalidPasswordHash
	}

	version, ok := strings.CutPrefix(sections[2], "v=")
	if !ok {
		return passwordHash{}, ErrInvalidPasswordHash
	}
	if v, err := strconv.Atoi(version); err != nil {
		return passwordHash{}, ErrInvalidPasswordHash
	} else if v != argon2.Version {
		return passwordHash{}, ErrIncompatiblePasswordVersion
	}

	var h passwordHash
	for _, field := range strings.Split(sections[3], ",") {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return passwordHash{}, ErrInvalidPasswordHash
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return passwordHash{}, ErrInvalidPasswordHash
		}
		switch name {
		case "m":
			h.params.Memory = uint32(n)
		case "t":
			h.params.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return passwordHash{}, ErrInvalidPasswordHash
			}
			h.params.Parallelism = uint8(n)
		default:
			return passwordHash{}, ErrInvalidPasswordHash
		}
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(sections[4]); err != nil {
		return passwordHash{}, ErrInvalidPasswordHash
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(sections[5]); err != nil {
		return passwordHash{}, ErrInvalidPasswordHash
	}
	h.params.SaltLength = uint32(len(h.salt))
	h.params.KeyLength = uint32(len(h.key))

	if err := h.params.validate(); err != nil {
		return passwordHash{}, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}
	return h, nil
}

// CreatePasswordHash derives the credential string stored as the Basic auth
// password hash.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	if err := params.validate(); err != nil {
		return "", err
	}

	h := passwordHash{params: params, salt: make([]byte, params.SaltLength)}
	if _, err := rand.Read(h.salt); err != nil {
		return "", err
	}
	h.key = argon2.IDKey([]byte(password), h.salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	return h.String(), nil
}

// ValidatePasswordHash reports whether encoded can be used to verify
// passwords, so a bad configuration fails at startup rather than on the
// first request.
func ValidatePasswordHash(encoded string) error {
	_, err := parsePasswordHash(encoded)
	return err
}

// VerifyPassword returns nil when password matches hashedPassword and
// ErrInvalidCredentials when it does not.
func VerifyPassword(hashedPassword, password string) error {
	h, err := parsePasswordHash(hashedPassword)
	if err != nil {
		return err
	}
	if !h.matches(password) {
		return ErrInvalidCredentials
	}
	return nil
}
