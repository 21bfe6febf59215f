package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"parley/internal/domain"
	"parley/internal/metrics"
	"parley/internal/ports"
	"parley/internal/transcript"
)

var (
	ErrPlaybackBusy = errors.New("entry is already loading or playing")
	ErrNotPlayable  = errors.New("only translated entries can be played")
)

const (
	defaultSpeechVoice = "alloy"
	defaultSpeechModel = "tts-1"
)

// PlaybackConfig selects the synthesis voice and model.
type PlaybackConfig struct {
	Voice string
	Model string
}

// PlaybackAdapter reads a translated entry aloud. Each entry has its own
// idle/loading/playing state; different entries may play at the same time.
type PlaybackAdapter struct {
	log         *transcript.Log
	synthesizer ports.SpeechSynthesizer
	player      ports.AudioPlayer
	events      ports.EventSink
	metrics     *metrics.Session
	logger      *slog.Logger
	cfg         PlaybackConfig

	mu     sync.Mutex
	states map[string]domain.PlaybackState
}

func NewPlaybackAdapter(
	log *transcript.Log,
	synthesizer ports.SpeechSynthesizer,
	player ports.AudioPlayer,
	events ports.EventSink,
	sessionMetrics *metrics.Session,
	logger *slog.Logger,
	cfg PlaybackConfig,
) *PlaybackAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.Voice) == "" {
		cfg.Voice = defaultSpeechVoice
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultSpeechModel
	}
	return &PlaybackAdapter{
		log:         log,
		synthesizer: synthesizer,
		player:      player,
		events:      events,
		metrics:     sessionMetrics,
		logger:      logger,
		cfg:         cfg,
		states:      make(map[string]domain.PlaybackState),
	}
}

// State returns the playback state for one entry.
func (p *PlaybackAdapter) State(entryID string) domain.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state, ok := p.states[entryID]; ok {
		return state
	}
	return domain.PlaybackStateIdle
}

// Play synthesizes the entry's text and blocks until playback finishes. The
// entry is back to idle on every return path.
func (p *PlaybackAdapter) Play(ctx context.Context, entryID string) error {
	entry, ok := p.log.Get(entryID)
	if !ok {
		return fmt.Errorf("%w: %s", transcript.ErrUnknownEntry, entryID)
	}
	if entry.Role != domain.RoleAssistant || entry.Placeholder {
		return fmt.Errorf("%w: %s", ErrNotPlayable, entryID)
	}

	p.mu.Lock()
	if state, ok := p.states[entryID]; ok && state != domain.PlaybackStateIdle {
		p.mu.Unlock()
		return ErrPlaybackBusy
	}
	p.states[entryID] = domain.PlaybackStateLoading
	p.mu.Unlock()
	p.events.PlaybackStateChanged(entryID, domain.PlaybackStateLoading)

	err := p.play(ctx, entryID, entry.Text)

	p.mu.Lock()
	delete(p.states, entryID)
	p.mu.Unlock()
	p.events.PlaybackStateChanged(entryID, domain.PlaybackStateIdle)

	p.metrics.ObservePlayback(err)
	if err != nil {
		notify(p.events, OpSpeech, err)
		p.logger.Warn("playback failed", "entry", entryID, "error", err)
		return err
	}
	p.logger.Debug("playback finished", "entry", entryID)
	return nil
}

func (p *PlaybackAdapter) play(ctx context.Context, entryID string, text string) error {
	audio, err := p.synthesizer.Synthesize(ctx, domain.SpeechRequest{
		Text:  text,
		Voice: p.cfg.Voice,
		Model: p.cfg.Model,
	})
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if len(audio) == 0 {
		return &domain.CollaboratorError{Collaborator: "text-to-speech", Message: "Failed to generate speech"}
	}

	p.mu.Lock()
	p.states[entryID] = domain.PlaybackStatePlaying
	p.mu.Unlock()
	p.events.PlaybackStateChanged(entryID, domain.PlaybackStatePlaying)

	if err := p.player.Play(ctx, audio); err != nil {
		return fmt.Errorf("play audio: %w", err)
	}
	return nil
}
