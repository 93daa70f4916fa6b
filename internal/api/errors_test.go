package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{401, KindAuthExpired},
		{404, KindNotFound},
		{400, KindClientError},
		{403, KindClientError},
		{409, KindClientError},
		{500, KindServerError},
		{503, KindServerError},
	}
	for _, tt := range tests {
		err := statusError("op", tt.status, nil)
		if err.Kind != tt.want {
			t.Errorf("status %d: kind = %s, want %s", tt.status, err.Kind, tt.want)
		}
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("navigating: %w", statusError("list folder", 401, []byte("expired")))

	if !IsAuthExpired(err) {
		t.Error("expected IsAuthExpired through wrapping")
	}
	if IsKind(err, KindNotFound) {
		t.Error("did not expect KindNotFound")
	}
	if IsKind(errors.New("plain"), KindTransport) {
		t.Error("plain errors have no kind")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"auth expired", statusError("list", 401, []byte("token expired")), reloginMessage},
		{"raw body", statusError("create folder", 409, []byte(` Duplicate child name `)), "Duplicate child name"},
		{"empty body", statusError("list", 502, nil), "Bad Gateway"},
		{"validation", NewValidationError("create folder", "folder name is empty"), "folder name is empty"},
		{"plain error", errors.New("disk full"), "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := statusError("list folder", 404, []byte("gone"))
	if got := err.Error(); got != "list folder failed: status 404: gone" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := transportError("upload file", errors.New("connection reset"))
	if got := wrapped.Error(); got != "upload file failed: connection reset" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(wrapped, wrapped.Err) {
		t.Error("Unwrap should expose the cause")
	}
}
