package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/timeblocks/internal/application"
	"github.com/example/timeblocks/internal/logging"
)

type fakeAuthenticator struct {
	enabled bool
	err     error
	calls   int
}

func (f *fakeAuthenticator) Enabled() bool { return f.enabled }

func (f *fakeAuthenticator) Authenticate(ctx context.Context, username, password string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if username != "owner" || password != "secret" {
		return application.ErrInvalidCredentials
	}
	return nil
}

func TestRequireBasicAuth(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		auth       *fakeAuthenticator
		path       string
		user, pass string
		wantStatus int
		wantCalls  int
	}{
		{name: "missing credentials", auth: &fakeAuthenticator{enabled: true}, path: "/blocks", wantStatus: http.StatusUnauthorized},
		{name: "wrong password", auth: &fakeAuthenticator{enabled: true}, path: "/blocks", user: "owner", pass: "nope", wantStatus: http.StatusUnauthorized, wantCalls: 1},
		{name: "valid credentials", auth: &fakeAuthenticator{enabled: true}, path: "/blocks", user: "owner", pass: "secret", wantStatus: http.StatusOK, wantCalls: 1},
		{name: "exempt path", auth: &fakeAuthenticator{enabled: true}, path: "/health", wantStatus: http.StatusOK},
		{name: "disabled auth", auth: &fakeAuthenticator{}, path: "/blocks", wantStatus: http.StatusOK},
		{name: "verifier failure", auth: &fakeAuthenticator{enabled: true, err: errors.New("bad hash")}, path: "/blocks", user: "owner", pass: "secret", wantStatus: http.StatusInternalServerError, wantCalls: 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := RequireBasicAuth(tc.auth, "", logging.Discard(), "/health")(ok)
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.user != "" {
				req.SetBasicAuth(tc.user, tc.pass)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			if tc.auth.calls != tc.wantCalls {
				t.Fatalf("expected %d authenticate calls, got %d", tc.wantCalls, tc.auth.calls)
			}
			if rec.Code == http.StatusUnauthorized && !strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Basic ") {
				t.Fatalf("expected Basic challenge, got %q", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var sawLogger bool
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/blocks", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/agenda", nil))

	if !sawLogger {
		t.Fatalf("expected request logger in context")
	}
	out := buf.String()
	for _, want := range []string{`"request_id":1`, `"request_id":2`, `"status":201`, `"path":"/agenda"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log output:\n%s", want, out)
		}
	}
}
