package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"parley/internal/domain"
	"parley/internal/ports"
)

type fakeAudioCapture struct {
	sessions []ports.AudioSession
	err      error
	calls    int
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.sessions) {
		return nil, errors.New("no audio session configured")
	}
	session := f.sessions[f.calls]
	f.calls++
	return session, nil
}

type fakeAudioSession struct {
	mu        sync.Mutex
	chunks    [][]byte
	index     int
	stopCalls int
	stopErr   error
}

func (f *fakeAudioSession) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index >= len(f.chunks) {
		return 0, io.EOF
	}
	n := copy(p, f.chunks[f.index])
	f.index++
	return n, nil
}

func (f *fakeAudioSession) Close() error { return nil }

func (f *fakeAudioSession) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return f.stopErr
}

type fakeRules struct {
	transform string
	err       error
}

func (f *fakeRules) Apply(text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.transform != "" {
		return f.transform, nil
	}
	return text, nil
}

type notice struct {
	code    domain.ErrorCode
	message string
}

type playbackChange struct {
	entryID string
	state   domain.PlaybackState
}

type fakeEventSink struct {
	mu          sync.Mutex
	transcripts [][]domain.TranscriptEntry
	captures    []domain.CaptureState
	playbacks   []playbackChange
	progress    [][2]int
	notices     []notice
}

func (f *fakeEventSink) TranscriptChanged(entries []domain.TranscriptEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts = append(f.transcripts, entries)
}

func (f *fakeEventSink) CaptureStateChanged(state domain.CaptureState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures = append(f.captures, state)
}

func (f *fakeEventSink) PlaybackStateChanged(entryID string, state domain.PlaybackState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playbacks = append(f.playbacks, playbackChange{entryID: entryID, state: state})
}

func (f *fakeEventSink) DocumentProgress(done int, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, [2]int{done, total})
}

func (f *fakeEventSink) Notice(code domain.ErrorCode, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{code: code, message: message})
}

func (f *fakeEventSink) noticeList() []notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notice(nil), f.notices...)
}

func (f *fakeEventSink) captureStates() []domain.CaptureState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CaptureState(nil), f.captures...)
}

func (f *fakeEventSink) playbackChanges() []playbackChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]playbackChange(nil), f.playbacks...)
}

type translateCall struct {
	text  string
	langs domain.LanguagePair
}

// fakeTranslator answers "<text>-translated" unless an error is registered for the text.
type fakeTranslator struct {
	mu     sync.Mutex
	calls  []translateCall
	errs   map[string]error
	answer map[string]string
	// started is signalled when a call begins; release blocks the call until closed.
	started chan string
	release chan struct{}
}

func (f *fakeTranslator) Translate(ctx context.Context, text string, langs domain.LanguagePair) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, translateCall{text: text, langs: langs})
	err := f.errs[text]
	answer, hasAnswer := f.answer[text]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- text
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if hasAnswer {
		return answer, nil
	}
	return text + "-translated", nil
}

func (f *fakeTranslator) callList() []translateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]translateCall(nil), f.calls...)
}

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	clips []domain.AudioClip
}

func (f *fakeTranscriber) Transcribe(_ context.Context, clip domain.AudioClip) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clips = append(f.clips, clip)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeExtractor struct {
	sentences []string
	err       error
	calls     int
	lastName  string
}

func (f *fakeExtractor) Extract(_ context.Context, filename string, content io.Reader) ([]string, error) {
	f.calls++
	f.lastName = filename
	if _, err := io.Copy(io.Discard, content); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.sentences, nil
}

type fakeSynthesizer struct {
	mu       sync.Mutex
	audio    []byte
	err      error
	requests []domain.SpeechRequest
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, req domain.SpeechRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

type fakePlayer struct {
	mu      sync.Mutex
	played  [][]byte
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakePlayer) Play(_ context.Context, audio []byte) error {
	f.mu.Lock()
	f.played = append(f.played, audio)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.err
}

type fakeBuilder struct {
	calls int
	pairs []domain.Pair
	err   error
}

func (f *fakeBuilder) Build(kind domain.ExportKind, pairs []domain.Pair) (domain.Artifact, error) {
	f.calls++
	f.pairs = pairs
	if f.err != nil {
		return domain.Artifact{}, f.err
	}
	return domain.Artifact{Filename: kind.Filename(), MIMEType: kind.MIMEType(), Data: []byte("built")}, nil
}

type fakeRenderer struct {
	calls int
	kind  domain.ExportKind
	pairs []domain.Pair
	err   error
}

func (f *fakeRenderer) RenderPDF(_ context.Context, pairs []domain.Pair, kind domain.ExportKind) ([]byte, error) {
	f.calls++
	f.kind = kind
	f.pairs = pairs
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4"), nil
}

type fakeSaver struct {
	mu      sync.Mutex
	saved   []domain.Artifact
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSaver) Save(_ context.Context, artifact domain.Artifact) (string, error) {
	f.mu.Lock()
	f.saved = append(f.saved, artifact)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	return "/downloads/" + artifact.Filename, nil
}

type staticLanguages struct {
	mu    sync.Mutex
	pair  domain.LanguagePair
	reads int
}

func (s *staticLanguages) Languages() domain.LanguagePair {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.pair
}

func (s *staticLanguages) set(pair domain.LanguagePair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
}

var englishToArabic = domain.LanguagePair{Source: "English", Target: "Arabic"}
