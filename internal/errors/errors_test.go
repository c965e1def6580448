package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHostError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *HostError
		expected string
	}{
		{
			name: "message only",
			err: &HostError{
				Code:    ErrCodeValidation,
				Message: "invalid input",
			},
			expected: "invalid input",
		},
		{
			name: "with domain",
			err: &HostError{
				Code:    ErrCodeNotFound,
				Message: "Virtual host is not found.",
				Domain:  "example.com",
			},
			expected: "host example.com: Virtual host is not found.",
		},
		{
			name: "with underlying error",
			err: &HostError{
				Code:    ErrCodeConfig,
				Message: "failed to load",
				Err:     fmt.Errorf("file not found"),
			},
			expected: "failed to load: file not found",
		},
		{
			name: "with domain and underlying error",
			err: &HostError{
				Code:    ErrCodeDirectoryNotCreated,
				Message: "Host directory could not be created.",
				Domain:  "test.com",
				Err:     fmt.Errorf("permission denied"),
			},
			expected: "host test.com: Host directory could not be created.: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestHostError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"not found matches sentinel", NotFound("example.com"), ErrHostNotFound, true},
		{"not found does not match conflict", NotFound("example.com"), ErrConflict, false},
		{"conflict matches sentinel", Conflict("example.com", nil), ErrConflict, true},
		{"wrapped in fmt", fmt.Errorf("outer: %w", Validation("bad")), ErrValidation, true},
		{"directory branch sentinel", DirectoryNotCreated("a.test", ErrDirectoryAlreadyExists), ErrDirectoryAlreadyExists, true},
		{"directory class sentinel", DirectoryNotCreated("a.test", ErrDirectoryNotWritable), ErrDirectoryNotCreated, true},
		{"directory branch mismatch", DirectoryNotCreated("a.test", ErrDirectoryNotWritable), ErrDirectoryAlreadyExists, false},
		{"config branch sentinel", ConfigNotCreated("a.test", ErrConfigAlreadyExists), ErrConfigAlreadyExists, true},
		{"plain error", errors.New("boom"), ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.target); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandFailed(t *testing.T) {
	t.Run("carries output", func(t *testing.T) {
		err := CommandFailed("nginx: [emerg] unknown directive", nil)
		if PublicMessage(err) != "nginx: [emerg] unknown directive" {
			t.Errorf("unexpected message %q", PublicMessage(err))
		}
		if !Is(err, ErrCommandFailed) {
			t.Error("expected ErrCommandFailed")
		}
	})

	t.Run("generic message when empty", func(t *testing.T) {
		err := CommandFailed("", errors.New("exit status 1"))
		if PublicMessage(err) != ErrCommandFailed.Message {
			t.Errorf("expected generic message, got %q", PublicMessage(err))
		}
	})
}

func TestPublicMessage(t *testing.T) {
	err := DirectoryNotCreated("example.com", fmt.Errorf("mkdir /var/www/hosts/example.com: %w", ErrDirectoryNotWritable))
	if got := PublicMessage(err); got != "Host directory could not be created." {
		t.Errorf("PublicMessage() = %q", got)
	}

	if got := PublicMessage(errors.New("open /etc/secret: permission denied")); got != ErrInternal.Message {
		t.Errorf("plain errors must not leak, got %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusUnprocessableEntity},
		{Conflict("a.test", nil), http.StatusConflict},
		{NotFound(""), http.StatusNotFound},
		{DirectoryNotCreated("a.test", nil), http.StatusInternalServerError},
		{CommandFailed("x", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(CodeOf(tt.err)), func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"not found", NotFound("a.test"), ExitNotFound},
		{"validation", Validation("bad"), ExitValidation},
		{"conflict", Conflict("a.test", nil), ExitConflict},
		{"command", CommandFailed("x", nil), ExitCommandFailed},
		{"config", Wrap(ErrCodeConfig, "bad config", nil), ExitConfigError},
		{"plain", errors.New("x"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHostError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("underlying error")
	err := Internal(underlying)

	if !errors.Is(err, underlying) {
		t.Error("expected chain to contain underlying error")
	}
	if CodeOf(err) != ErrCodeInternal {
		t.Errorf("expected INTERNAL, got %s", CodeOf(err))
	}
}
