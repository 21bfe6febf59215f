package usecase

import (
	"context"
	"errors"
	"net"
	"net/url"

	"parley/internal/domain"
	"parley/internal/ports"
)

// Operation names the adapter boundary a notice comes from.
type Operation string

const (
	OpTranslate  Operation = "translate"
	OpDocument   Operation = "document"
	OpAudio      Operation = "audio"
	OpMicrophone Operation = "microphone"
	OpExport     Operation = "export"
	OpExportPDF  Operation = "export_pdf"
	OpSpeech     Operation = "speech"
)

var (
	ErrEmptyInput      = errors.New("nothing to submit")
	ErrNothingToExport = errors.New("no messages to export")
)

// Classify maps an error onto the notice taxonomy.
func Classify(err error) domain.ErrorCode {
	var collaborator *domain.CollaboratorError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ports.ErrDeviceDenied):
		return domain.ErrorCodeDeviceDenied
	case errors.Is(err, ErrEmptyInput), errors.Is(err, ErrNothingToExport), errors.Is(err, ErrUnsupportedDocument):
		return domain.ErrorCodeEmptyInput
	case errors.As(err, &collaborator):
		if collaborator.RateLimited() {
			return domain.ErrorCodeRateLimited
		}
		if collaborator.Unauthorized() {
			return domain.ErrorCodeUnauthorized
		}
		return domain.ErrorCodeCollaboratorRejected
	case isTransport(err):
		return domain.ErrorCodeTransport
	default:
		return domain.ErrorCodeCollaboratorRejected
	}
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// NoticeMessage renders the single user-visible line for a failed operation.
func NoticeMessage(op Operation, err error) string {
	if errors.Is(err, ErrNothingToExport) {
		return "No messages to export."
	}
	return operationPrefix(op) + detail(op, Classify(err), err)
}

func operationPrefix(op Operation) string {
	switch op {
	case OpTranslate:
		return "Translation failed: "
	case OpDocument:
		return "PDF processing failed: "
	case OpAudio:
		return "Audio processing failed: "
	case OpMicrophone:
		return "Error accessing microphone: "
	case OpExport:
		return "Error exporting file: "
	case OpExportPDF:
		return "Error exporting PDF: "
	case OpSpeech:
		return "Text-to-speech failed: "
	default:
		return ""
	}
}

func detail(op Operation, code domain.ErrorCode, err error) string {
	switch code {
	case domain.ErrorCodeRateLimited:
		if op == OpSpeech {
			return "Speech service rate limit reached. Please wait a few minutes before using text-to-speech again."
		}
		return "Service rate limit reached. Please wait a few minutes and try again."
	case domain.ErrorCodeUnauthorized:
		return "API key issue. Please check your API key configuration."
	case domain.ErrorCodeTransport:
		return "Network error. Please check your internet connection and try again."
	default:
		return err.Error()
	}
}

func notify(events ports.EventSink, op Operation, err error) {
	events.Notice(Classify(err), NoticeMessage(op, err))
}
