package domain

import "time"

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// LanguagePair is the source/target selection at the moment a call is issued.
type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// TranscriptEntry is one rendered line of the conversation.
type TranscriptEntry struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Text        string       `json:"text"`
	Placeholder bool         `json:"placeholder"`
	Languages   LanguagePair `json:"languages"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Pair is an (original, translated) tuple reconstructed for export.
type Pair struct {
	Original   string       `json:"original"`
	Translated string       `json:"translated"`
	Languages  LanguagePair `json:"languages"`
}

// CaptureState models the record toggle lifecycle.
type CaptureState string

const (
	CaptureStateIdle      CaptureState = "idle"
	CaptureStateStarting  CaptureState = "starting"
	CaptureStateRecording CaptureState = "recording"
	CaptureStateStopping  CaptureState = "stopping"
)

// PlaybackState models a single speak button.
type PlaybackState string

const (
	PlaybackStateIdle    PlaybackState = "idle"
	PlaybackStateLoading PlaybackState = "loading"
	PlaybackStatePlaying PlaybackState = "playing"
)

// ExportKind selects one of the five export paths.
type ExportKind string

const (
	ExportSpreadsheet   ExportKind = "spreadsheet"
	ExportDocumentTable ExportKind = "document-table"
	ExportDocumentText  ExportKind = "document-text"
	ExportPDFTable      ExportKind = "pdf-table"
	ExportPDFText       ExportKind = "pdf-text"
)

// ExportKinds lists every supported kind in picker order.
var ExportKinds = []ExportKind{
	ExportSpreadsheet,
	ExportDocumentTable,
	ExportDocumentText,
	ExportPDFTable,
	ExportPDFText,
}

// ParseExportKind validates a kind coming from the page.
func ParseExportKind(value string) (ExportKind, bool) {
	for _, kind := range ExportKinds {
		if string(kind) == value {
			return kind, true
		}
	}
	return "", false
}

// ServerRendered reports whether the kind is rendered by the remote PDF collaborator.
func (k ExportKind) ServerRendered() bool {
	return k == ExportPDFTable || k == ExportPDFText
}

// Filename is the download name used for the kind.
func (k ExportKind) Filename() string {
	switch k {
	case ExportSpreadsheet:
		return "translated_chat.xlsx"
	case ExportDocumentTable:
		return "translated_chat_table.docx"
	case ExportDocumentText:
		return "translated_chat_text.docx"
	case ExportPDFTable:
		return "translated_chat_table.pdf"
	case ExportPDFText:
		return "translated_chat_text.pdf"
	default:
		return "translated_chat"
	}
}

// MIMEType is the content type of the kind's file.
func (k ExportKind) MIMEType() string {
	switch k {
	case ExportSpreadsheet:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportDocumentTable, ExportDocumentText:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ExportPDFTable, ExportPDFText:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Artifact is a generated export ready to be saved.
type Artifact struct {
	Filename string
	MIMEType string
	Data     []byte
}

// SpeechRequest describes a synthesis call.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Model string `json:"model"`
}

// Status summarizes the current runtime status.
type Status struct {
	Capture CaptureState `json:"capture"`
	Entries int          `json:"entries"`
	Message string       `json:"message,omitempty"`
}

// Icon is the record button glyph for the state.
func (s CaptureState) Icon() string {
	switch s {
	case CaptureStateRecording:
		return "stop"
	case CaptureStateStarting, CaptureStateStopping:
		return "arrow-clockwise"
	default:
		return "mic"
	}
}

// Icon is the speak button glyph for the state.
func (s PlaybackState) Icon() string {
	switch s {
	case PlaybackStateLoading:
		return "arrow-clockwise"
	case PlaybackStatePlaying:
		return "pause-fill"
	default:
		return "volume-up"
	}
}
