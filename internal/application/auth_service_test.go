package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/timeblocks/internal/logging"
)

var fastArgon2Params = Argon2idParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestPasswordHash(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("correct horse", fastArgon2Params)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	if err := VerifyPassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "battery staple"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := VerifyPassword("plaintext", "plaintext"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
	if _, err := CreatePasswordHash("", fastArgon2Params); err == nil {
		t.Fatalf("expected empty password to be rejected")
	}
}

func TestParsePasswordHash(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("correct horse", fastArgon2Params)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	parsed, err := parsePasswordHash(hash)
	if err != nil {
		t.Fatalf("parsePasswordHash returned error: %v", err)
	}
	if parsed.params != fastArgon2Params {
		t.Fatalf("expected params %+v, got %+v", fastArgon2Params, parsed.params)
	}
	if parsed.String() != hash {
		t.Fatalf("expected re-encoding to reproduce %q, got %q", hash, parsed.String())
	}

	sections := strings.Split(hash, "$")
	with := func(i int, value string) string {
		out := append([]string(nil), sections...)
		out[i] = value
		return strings.Join(out, "$")
	}
	tests := []struct {
		name    string
		encoded string
		want    error
	}{
		{name: "bcrypt", encoded: "$2a$10$abcdefghijklmnopqrstuv", want: ErrInvalidPasswordHash},
		{name: "other version", encoded: with(2, "v=16"), want: ErrIncompatiblePasswordVersion},
		{name: "unknown parameter", encoded: with(3, "m=8192,t=1,x=1"), want: ErrInvalidPasswordHash},
		{name: "zero iterations", encoded: with(3, "m=8192,t=0,p=1"), want: ErrInvalidPasswordHash},
		{name: "huge memory", encoded: with(3, "m=4294967295,t=1,p=1"), want: ErrInvalidPasswordHash},
		{name: "short salt", encoded: with(4, "c2FsdA"), want: ErrInvalidPasswordHash},
		{name: "bad key encoding", encoded: with(5, "!!"), want: ErrInvalidPasswordHash},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidatePasswordHash(tc.encoded); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := CreatePasswordHash("pw", Argon2idParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 4, KeyLength: 32}); err == nil {
		t.Fatalf("expected short salt to be rejected when hashing")
	}
}

func TestBasicAuthenticator(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("s3cret", fastArgon2Params)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	auth := NewBasicAuthenticator("owner", hash, nil, logging.Discard())
	ctx := context.Background()

	if !auth.Enabled() {
		t.Fatalf("expected authenticator to be enabled")
	}

	tests := []struct {
		name     string
		user     string
		password string
		wantErr  error
	}{
		{name: "valid", user: "owner", password: "s3cret"},
		{name: "wrong password", user: "owner", password: "guess", wantErr: ErrInvalidCredentials},
		{name: "wrong user", user: "intruder", password: "s3cret", wantErr: ErrInvalidCredentials},
		{name: "empty", wantErr: ErrInvalidCredentials},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := auth.Authenticate(ctx, tc.user, tc.password)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if NewBasicAuthenticator("", "", nil, nil).Enabled() {
		t.Fatalf("expected authenticator without credentials to be disabled")
	}
}
