package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"parley/internal/bootstrap"
	"parley/internal/domain"
	"parley/internal/events"
	"parley/internal/export"
	"parley/internal/ports"
	"parley/internal/transcript"
	"parley/internal/usecase"
)

type stubTranslator struct{}

func (stubTranslator) Translate(_ context.Context, text string, _ domain.LanguagePair) (string, error) {
	if text == "limit" {
		return "", &domain.CollaboratorError{Collaborator: "translate", Status: 429, Message: "Rate limit exceeded"}
	}
	return "[" + text + "]", nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, _ string, content io.Reader) ([]string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

type deniedCapture struct{}

func (deniedCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	return nil, ports.ErrDeviceDenied
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(_ context.Context, _ domain.SpeechRequest) ([]byte, error) {
	return []byte("mp3"), nil
}

type stubPlayer struct{}

func (stubPlayer) Play(_ context.Context, _ []byte) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger)
	sink := events.NewSink(hub.Emit)

	log := transcript.NewLog()
	languages := usecase.NewLanguageSelection(usecase.DefaultLanguages)
	conversation := usecase.NewConversationController(log, stubTranslator{}, stubExtractor{}, languages, sink, nil, logger)
	services := bootstrap.Services{
		Transcript:   log,
		Languages:    languages,
		Conversation: conversation,
		Capture:      usecase.NewCaptureAdapter(deniedCapture{}, nil, conversation, nil, sink, nil, logger, usecase.CaptureConfig{}),
		Export:       usecase.NewExportAdapter(log, export.NewBuilder(), nil, sink, nil, logger),
		Playback:     usecase.NewPlaybackAdapter(log, stubSynthesizer{}, stubPlayer{}, sink, nil, logger, usecase.PlaybackConfig{}),
		Logger:       logger,
	}

	server := httptest.NewServer(NewServer(services, hub, logger).Handler())
	t.Cleanup(server.Close)
	return server, hub
}

func doJSON(t *testing.T, method string, url string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestSubmitMessageReturnsTranscript(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/transcript", "")
	if entries := decode[[]domain.TranscriptEntry](t, resp); len(entries) != 0 {
		t.Fatalf("expected empty transcript, got %+v", entries)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/messages", `{"text":"Hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	entries := decode[[]domain.TranscriptEntry](t, resp)
	if len(entries) != 2 || entries[0].Text != "Hello" || entries[1].Text != "[Hello]" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	status := decode[domain.Status](t, doJSON(t, http.MethodGet, server.URL+"/api/status", ""))
	if status.Entries != 2 || status.Capture != domain.CaptureStateIdle {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestSubmitMessageRateLimited(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/messages", `{"text":"limit"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body := decode[errorResponse](t, resp)
	if body.Code != domain.ErrorCodeRateLimited || !strings.HasPrefix(body.Error, "Translation failed: ") {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestSetLanguages(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/languages", `{"source":"Arabic","target":"English"}`)
	if pair := decode[domain.LanguagePair](t, resp); pair.Source != "Arabic" || pair.Target != "English" {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	resp = doJSON(t, http.MethodPut, server.URL+"/api/languages", `{"source":"Arabic","target":"Latin"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/languages", "")
	if pair := decode[domain.LanguagePair](t, resp); pair.Source != "Arabic" {
		t.Fatalf("expected previous selection to stay, got %+v", pair)
	}
}

func TestExportEmptyTranscript(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/exports/spreadsheet", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decode[errorResponse](t, resp); body.Error != "No messages to export." {
		t.Fatalf("unexpected error body: %+v", body)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/exports/csv", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown kind, got %d", resp.StatusCode)
	}
}

func TestExportStreamsAttachment(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	doJSON(t, http.MethodPost, server.URL+"/api/messages", `{"text":"Hello"}`)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/exports/document-table", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="translated_chat_table.docx"` {
		t.Fatalf("unexpected disposition: %q", got)
	}
	if got := resp.Header.Get("Content-Type"); got != domain.ExportDocumentTable.MIMEType() {
		t.Fatalf("unexpected content type: %q", got)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("expected a zip container")
	}
}

func TestUploadDocument(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "notes.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("One\n\nTwo")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := http.Post(server.URL+"/api/documents", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if entries := decode[[]domain.TranscriptEntry](t, resp); len(entries) != 4 {
		t.Fatalf("expected two turns, got %+v", entries)
	}

	resp2 := doJSON(t, http.MethodPost, server.URL+"/api/documents", "")
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", resp2.StatusCode)
	}
}

func TestToggleRecordingDenied(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/recording/toggle", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if body := decode[errorResponse](t, resp); body.Code != domain.ErrorCodeDeviceDenied {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestPlayEntry(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	entries := decode[[]domain.TranscriptEntry](t, doJSON(t, http.MethodPost, server.URL+"/api/messages", `{"text":"Hello"}`))

	resp := doJSON(t, http.MethodPost, server.URL+"/api/entries/"+entries[1].ID+"/play", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/entries/"+entries[0].ID+"/play", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a user entry, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/entries/missing/play", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWebSocketReceivesEvents(t *testing.T) {
	t.Parallel()

	server, hub := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Clients() != 1 {
		t.Fatalf("expected one registered client")
	}

	doJSON(t, http.MethodPost, server.URL+"/api/messages", `{"text":"Hello"}`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first Message
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if first.Event != events.NameTranscript {
		t.Fatalf("unexpected first event: %+v", first)
	}
	entries, ok := first.Payload.([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("expected user entry and placeholder, got %+v", first.Payload)
	}
}
