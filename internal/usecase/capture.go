package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"parley/internal/domain"
	"parley/internal/metrics"
	"parley/internal/ports"
)

var (
	ErrCaptureBusy = errors.New("recording is starting or stopping")
	ErrNoAudio     = errors.New("no audio captured")
)

// CaptureConfig controls microphone capture.
type CaptureConfig struct {
	Audio     ports.AudioConfig
	ChunkSize int
}

type transcriptSubmitter interface {
	SubmitTranscribedAudio(ctx context.Context, text string) error
}

type captureSession struct {
	cancel context.CancelFunc
	audio  ports.AudioSession
	buffer *chunkBuffer
	done   chan struct{}
}

// CaptureAdapter toggles microphone recording and forwards finished recordings to
// transcription. One adapter owns at most one capture session.
type CaptureAdapter struct {
	capture     ports.AudioCapture
	transcriber ports.Transcriber
	submitter   transcriptSubmitter
	finalizer   transcriptFinalizer
	events      ports.EventSink
	metrics     *metrics.Session
	logger      *slog.Logger
	cfg         CaptureConfig

	mu      sync.Mutex
	state   domain.CaptureState
	current *captureSession
}

func NewCaptureAdapter(
	capture ports.AudioCapture,
	transcriber ports.Transcriber,
	submitter transcriptSubmitter,
	rules ports.RulesEngine,
	events ports.EventSink,
	sessionMetrics *metrics.Session,
	logger *slog.Logger,
	cfg CaptureConfig,
) *CaptureAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	return &CaptureAdapter{
		capture:     capture,
		transcriber: transcriber,
		submitter:   submitter,
		finalizer:   newTranscriptFinalizer(rules, logger),
		events:      events,
		metrics:     sessionMetrics,
		logger:      logger,
		cfg:         cfg,
		state:       domain.CaptureStateIdle,
	}
}

// State returns the current capture state.
func (c *CaptureAdapter) State() domain.CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Toggle starts recording when idle and stops-and-transcribes when recording.
// Toggles during a transition are rejected with ErrCaptureBusy.
func (c *CaptureAdapter) Toggle(ctx context.Context) (domain.CaptureState, error) {
	c.mu.Lock()
	switch c.state {
	case domain.CaptureStateIdle:
		c.state = domain.CaptureStateStarting
		c.mu.Unlock()
		c.events.CaptureStateChanged(domain.CaptureStateStarting)
		return c.start(ctx)

	case domain.CaptureStateRecording:
		session := c.current
		c.current = nil
		c.state = domain.CaptureStateStopping
		c.mu.Unlock()
		c.events.CaptureStateChanged(domain.CaptureStateStopping)
		return c.stop(ctx, session)

	default:
		state := c.state
		c.mu.Unlock()
		return state, ErrCaptureBusy
	}
}

func (c *CaptureAdapter) start(ctx context.Context) (domain.CaptureState, error) {
	// The device outlives the toggle request that opened it.
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	audio, err := c.capture.Start(sessionCtx, c.cfg.Audio)
	if err != nil {
		cancel()
		if !errors.Is(err, ports.ErrDeviceDenied) {
			err = fmt.Errorf("%w: %w", ports.ErrDeviceDenied, err)
		}
		c.transition(domain.CaptureStateIdle)
		notify(c.events, OpMicrophone, err)
		c.logger.Warn("microphone unavailable", "error", err)
		return domain.CaptureStateIdle, err
	}

	session := &captureSession{
		cancel: cancel,
		audio:  audio,
		buffer: &chunkBuffer{},
		done:   make(chan struct{}),
	}
	go pumpAudioChunks(session.audio, session.buffer, c.cfg.ChunkSize, c.logger, session.done)

	c.mu.Lock()
	c.current = session
	c.state = domain.CaptureStateRecording
	c.mu.Unlock()
	c.events.CaptureStateChanged(domain.CaptureStateRecording)
	return domain.CaptureStateRecording, nil
}

func (c *CaptureAdapter) stop(ctx context.Context, session *captureSession) (domain.CaptureState, error) {
	if err := session.audio.Stop(); err != nil {
		c.logger.Warn("failed to stop audio capture cleanly", "error", err)
	}
	<-session.done
	session.cancel()

	pcm, readErr := session.buffer.drain()
	clip := domain.AudioClip{
		PCM:        pcm,
		SampleRate: c.cfg.Audio.SampleRate,
		Channels:   c.cfg.Audio.Channels,
	}
	c.transition(domain.CaptureStateIdle)
	c.metrics.ObserveRecording(len(pcm))

	if clip.Empty() {
		err := ErrNoAudio
		if readErr != nil {
			err = fmt.Errorf("%w: %w", ErrNoAudio, readErr)
		}
		notify(c.events, OpAudio, err)
		return domain.CaptureStateIdle, err
	}

	text, err := c.transcriber.Transcribe(ctx, clip)
	if err != nil {
		err = fmt.Errorf("transcribe: %w", err)
		notify(c.events, OpAudio, err)
		c.logger.Warn("transcription failed", "audioBytes", len(pcm), "error", err)
		return domain.CaptureStateIdle, err
	}

	text = c.finalizer.Finalize(text)
	if text == "" {
		err := &domain.CollaboratorError{Collaborator: "transcribe", Message: "Failed to transcribe audio"}
		notify(c.events, OpAudio, err)
		return domain.CaptureStateIdle, err
	}

	if err := c.submitter.SubmitTranscribedAudio(ctx, text); err != nil {
		return domain.CaptureStateIdle, err
	}
	return domain.CaptureStateIdle, nil
}

func (c *CaptureAdapter) transition(state domain.CaptureState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.events.CaptureStateChanged(state)
}

// Abort stops an active recording without transcribing it.
func (c *CaptureAdapter) Abort() {
	c.mu.Lock()
	session := c.current
	if session == nil || c.state != domain.CaptureStateRecording {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.state = domain.CaptureStateStopping
	c.mu.Unlock()

	_ = session.audio.Stop()
	<-session.done
	session.cancel()
	_, _ = session.buffer.drain()
	c.transition(domain.CaptureStateIdle)
}
