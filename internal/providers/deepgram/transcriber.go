package deepgram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"parley/internal/domain"
	"parley/internal/ports"
)

// Transcriber implements ports.Transcriber by replaying a finished recording
// through a streaming session and joining the final segments.
type Transcriber struct {
	provider  ports.TranscriptionProvider
	chunkSize int
	logger    *slog.Logger
}

func NewTranscriber(provider ports.TranscriptionProvider, chunkSize int, logger *slog.Logger) *Transcriber {
	if chunkSize < 256 {
		chunkSize = 8192
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{provider: provider, chunkSize: chunkSize, logger: logger}
}

func (t *Transcriber) Transcribe(ctx context.Context, clip domain.AudioClip) (string, error) {
	if clip.Empty() {
		return "", errors.New("no audio to transcribe")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session, err := t.provider.StartStreaming(ctx, ports.StreamingConfig{
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
		Encoding:   "linear16",
	})
	if err != nil {
		return "", err
	}
	defer session.Close()

	aggregator := newTranscriptAggregator()
	consumed := make(chan struct{})
	go consumeTranscriptionEvents(session, aggregator, func(text string) {
		t.logger.Debug("partial transcript", "text", text)
	}, consumed)

	for offset := 0; offset < len(clip.PCM); offset += t.chunkSize {
		end := min(offset+t.chunkSize, len(clip.PCM))
		if err := session.SendAudio(clip.PCM[offset:end]); err != nil {
			return "", fmt.Errorf("stream audio: %w", err)
		}
	}
	if err := session.CloseSend(); err != nil {
		return "", fmt.Errorf("close audio stream: %w", err)
	}

	waitErr := session.Wait()
	<-consumed

	raw := strings.TrimSpace(aggregator.Raw())
	if waitErr != nil && raw == "" {
		return "", waitErr
	}
	if waitErr != nil {
		t.logger.Warn("transcription stream ended with error, keeping partial result", "error", waitErr)
	}
	return raw, nil
}
