package ports

import (
	"context"
	"errors"
	"io"

	"parley/internal/domain"
)

// ErrDeviceDenied is returned by AudioCapture when the microphone cannot be opened.
var ErrDeviceDenied = errors.New("microphone access denied")

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// AudioPlayer plays a synthesized audio payload and returns once playback has finished.
type AudioPlayer interface {
	Play(ctx context.Context, audio []byte) error
}

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
}

// StreamingSession is an active provider websocket session.
type StreamingSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// TranscriptionProvider starts streaming transcription sessions.
type TranscriptionProvider interface {
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}

// Translator translates one piece of text.
type Translator interface {
	Translate(ctx context.Context, text string, langs domain.LanguagePair) (string, error)
}

// Transcriber turns a finished recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, clip domain.AudioClip) (string, error)
}

// DocumentExtractor turns an uploaded document into ordered, non-empty sentences.
type DocumentExtractor interface {
	Extract(ctx context.Context, filename string, content io.Reader) ([]string, error)
}

// SpeechSynthesizer returns encoded audio for a piece of text.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req domain.SpeechRequest) ([]byte, error)
}

// PDFRenderer renders the export PDF remotely.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, pairs []domain.Pair, kind domain.ExportKind) ([]byte, error)
}

// ArtifactBuilder renders the client-side export kinds.
type ArtifactBuilder interface {
	Build(kind domain.ExportKind, pairs []domain.Pair) (domain.Artifact, error)
}

// FileSaver hands a finished artifact to the user and returns where it went.
type FileSaver interface {
	Save(ctx context.Context, artifact domain.Artifact) (string, error)
}

// LanguageSelector reads the current language controls.
type LanguageSelector interface {
	Languages() domain.LanguagePair
}

// RulesEngine transforms transcripts using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// EventSink emits backend state/events to the view.
type EventSink interface {
	TranscriptChanged(entries []domain.TranscriptEntry)
	CaptureStateChanged(state domain.CaptureState)
	PlaybackStateChanged(entryID string, state domain.PlaybackState)
	DocumentProgress(done int, total int)
	Notice(code domain.ErrorCode, message string)
}
