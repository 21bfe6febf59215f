package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"parley/internal/domain"
	"parley/internal/ports"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err  error
		want domain.ErrorCode
	}{
		"rate limited status": {
			err:  &domain.CollaboratorError{Collaborator: "translate", Status: 429},
			want: domain.ErrorCodeRateLimited,
		},
		"rate limited message": {
			err:  fmt.Errorf("wrap: %w", &domain.CollaboratorError{Collaborator: "transcribe", Message: "Rate limit exceeded"}),
			want: domain.ErrorCodeRateLimited,
		},
		"unauthorized": {
			err:  &domain.CollaboratorError{Collaborator: "speech", Status: 401},
			want: domain.ErrorCodeUnauthorized,
		},
		"rejected": {
			err:  &domain.CollaboratorError{Collaborator: "translate", Status: 400, Message: "Missing required parameters"},
			want: domain.ErrorCodeCollaboratorRejected,
		},
		"transport url": {
			err:  &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")},
			want: domain.ErrorCodeTransport,
		},
		"transport deadline": {
			err:  fmt.Errorf("call: %w", context.DeadlineExceeded),
			want: domain.ErrorCodeTransport,
		},
		"device": {
			err:  fmt.Errorf("start: %w", ports.ErrDeviceDenied),
			want: domain.ErrorCodeDeviceDenied,
		},
		"empty export": {
			err:  ErrNothingToExport,
			want: domain.ErrorCodeEmptyInput,
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestNoticeMessage(t *testing.T) {
	t.Parallel()

	if got := NoticeMessage(OpExport, ErrNothingToExport); got != "No messages to export." {
		t.Fatalf("unexpected empty export notice: %q", got)
	}

	rateLimited := &domain.CollaboratorError{Collaborator: "speech", Status: 429}
	if got := NoticeMessage(OpSpeech, rateLimited); !strings.HasPrefix(got, "Text-to-speech failed: Speech service rate limit") {
		t.Fatalf("unexpected speech rate limit notice: %q", got)
	}

	rejected := errors.New("boom")
	if got := NoticeMessage(OpTranslate, rejected); got != "Translation failed: boom" {
		t.Fatalf("unexpected translate notice: %q", got)
	}
}
