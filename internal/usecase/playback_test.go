package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"parley/internal/domain"
	"parley/internal/transcript"
)

func translatedEntry(t *testing.T, log *transcript.Log) domain.TranscriptEntry {
	t.Helper()
	_, placeholder := log.BeginTurn("Hello", englishToArabic)
	entry, err := log.Resolve(placeholder.ID, "مرحبا")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return entry
}

func assertEndsIdle(t *testing.T, events *fakeEventSink, adapter *PlaybackAdapter, entryID string) {
	t.Helper()
	changes := events.playbackChanges()
	if len(changes) == 0 {
		t.Fatalf("expected playback transitions")
	}
	last := changes[len(changes)-1]
	if last.entryID != entryID || last.state != domain.PlaybackStateIdle {
		t.Fatalf("expected final idle transition, got %+v", last)
	}
	if adapter.State(entryID) != domain.PlaybackStateIdle {
		t.Fatalf("expected idle state")
	}
}

func TestPlaybackSuccess(t *testing.T) {
	t.Parallel()

	log := transcript.NewLog()
	entry := translatedEntry(t, log)
	synth := &fakeSynthesizer{audio: []byte("mp3")}
	player := &fakePlayer{}
	events := &fakeEventSink{}
	adapter := NewPlaybackAdapter(log, synth, player, events, nil, nil, PlaybackConfig{})

	if err := adapter.Play(context.Background(), entry.ID); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if len(synth.requests) != 1 {
		t.Fatalf("expected one synthesis request")
	}
	req := synth.requests[0]
	if req.Text != "مرحبا" || req.Voice != "alloy" || req.Model != "tts-1" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(player.played) != 1 || string(player.played[0]) != "mp3" {
		t.Fatalf("expected synthesized audio to be played")
	}

	changes := events.playbackChanges()
	want := []domain.PlaybackState{domain.PlaybackStateLoading, domain.PlaybackStatePlaying, domain.PlaybackStateIdle}
	if len(changes) != len(want) {
		t.Fatalf("unexpected transitions: %+v", changes)
	}
	for i := range want {
		if changes[i].state != want[i] {
			t.Fatalf("transition %d: got %s want %s", i, changes[i].state, want[i])
		}
	}
}

func TestPlaybackSynthesisFailureEndsIdle(t *testing.T) {
	t.Parallel()

	log := transcript.NewLog()
	entry := translatedEntry(t, log)
	player := &fakePlayer{}
	events := &fakeEventSink{}
	adapter := NewPlaybackAdapter(
		log,
		&fakeSynthesizer{err: &domain.CollaboratorError{Collaborator: "text-to-speech", Status: 429, Message: "Rate limit exceeded"}},
		player,
		events,
		nil,
		nil,
		PlaybackConfig{},
	)

	if err := adapter.Play(context.Background(), entry.ID); err == nil {
		t.Fatalf("expected error")
	}
	if len(player.played) != 0 {
		t.Fatalf("expected nothing played")
	}
	assertEndsIdle(t, events, adapter, entry.ID)

	notices := events.noticeList()
	if len(notices) != 1 || notices[0].code != domain.ErrorCodeRateLimited {
		t.Fatalf("unexpected notices: %+v", notices)
	}
	if !strings.HasPrefix(notices[0].message, "Text-to-speech failed: Speech service rate limit") {
		t.Fatalf("unexpected notice message: %q", notices[0].message)
	}
}

func TestPlaybackPlayerFailureEndsIdle(t *testing.T) {
	t.Parallel()

	log := transcript.NewLog()
	entry := translatedEntry(t, log)
	events := &fakeEventSink{}
	adapter := NewPlaybackAdapter(
		log,
		&fakeSynthesizer{audio: []byte("mp3")},
		&fakePlayer{err: errors.New("decoder failed")},
		events,
		nil,
		nil,
		PlaybackConfig{},
	)

	if err := adapter.Play(context.Background(), entry.ID); err == nil {
		t.Fatalf("expected error")
	}
	assertEndsIdle(t, events, adapter, entry.ID)
	if len(events.noticeList()) != 1 {
		t.Fatalf("expected one notice")
	}
}

func TestPlaybackWhileBusyIsNoOp(t *testing.T) {
	t.Parallel()

	log := transcript.NewLog()
	entry := translatedEntry(t, log)
	synth := &fakeSynthesizer{audio: []byte("mp3")}
	player := &fakePlayer{started: make(chan struct{}), release: make(chan struct{})}
	events := &fakeEventSink{}
	adapter := NewPlaybackAdapter(log, synth, player, events, nil, nil, PlaybackConfig{Voice: "nova"})

	done := make(chan error, 1)
	go func() { done <- adapter.Play(context.Background(), entry.ID) }()
	<-player.started

	if adapter.State(entry.ID) != domain.PlaybackStatePlaying {
		t.Fatalf("expected playing state")
	}
	if err := adapter.Play(context.Background(), entry.ID); !errors.Is(err, ErrPlaybackBusy) {
		t.Fatalf("expected ErrPlaybackBusy, got %v", err)
	}

	close(player.release)
	if err := <-done; err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if len(synth.requests) != 1 || synth.requests[0].Voice != "nova" {
		t.Fatalf("expected a single synthesis with configured voice, got %+v", synth.requests)
	}
	assertEndsIdle(t, events, adapter, entry.ID)
}

func TestPlaybackRejectsUserAndUnknownEntries(t *testing.T) {
	t.Parallel()

	log := transcript.NewLog()
	user, placeholder := log.BeginTurn("Hello", englishToArabic)
	adapter := NewPlaybackAdapter(log, &fakeSynthesizer{}, &fakePlayer{}, &fakeEventSink{}, nil, nil, PlaybackConfig{})

	if err := adapter.Play(context.Background(), user.ID); !errors.Is(err, ErrNotPlayable) {
		t.Fatalf("expected ErrNotPlayable for user entry, got %v", err)
	}
	if err := adapter.Play(context.Background(), placeholder.ID); !errors.Is(err, ErrNotPlayable) {
		t.Fatalf("expected ErrNotPlayable for placeholder, got %v", err)
	}
	if err := adapter.Play(context.Background(), "missing"); !errors.Is(err, transcript.ErrUnknownEntry) {
		t.Fatalf("expected ErrUnknownEntry, got %v", err)
	}
}
