// Package httpapi exposes the conversation over localhost HTTP with a
// websocket event stream, for running without the desktop shell.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"parley/internal/bootstrap"
	"parley/internal/domain"
	"parley/internal/events"
	"parley/internal/export"
	"parley/internal/transcript"
	"parley/internal/usecase"
)

const maxDocumentBytes = 32 << 20

// Server routes HTTP requests onto the assembled services.
type Server struct {
	services bootstrap.Services
	hub      *Hub
	logger   *slog.Logger
	router   *mux.Router
}

func NewServer(services bootstrap.Services, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{services: services, hub: hub, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/api/transcript", s.handleTranscript).Methods("GET")
	router.HandleFunc("/api/languages", s.handleGetLanguages).Methods("GET")
	router.HandleFunc("/api/languages", s.handleSetLanguages).Methods("PUT")
	router.HandleFunc("/api/messages", s.handleSubmitText).Methods("POST")
	router.HandleFunc("/api/documents", s.handleUploadDocument).Methods("POST")
	router.HandleFunc("/api/recording/toggle", s.handleToggleRecording).Methods("POST")
	router.HandleFunc("/api/exports/{kind}", s.handleExport).Methods("POST")
	router.HandleFunc("/api/entries/{id}/play", s.handlePlay).Methods("POST")
	router.HandleFunc("/ws", hub.ServeWS)
	s.router = router

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Status{
		Capture: s.services.Capture.State(),
		Entries: s.services.Transcript.Len(),
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.services.Transcript.Snapshot())
}

func (s *Server) handleGetLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.services.Languages.Languages())
}

func (s *Server) handleSetLanguages(w http.ResponseWriter, r *http.Request) {
	var pair domain.LanguagePair
	if err := json.NewDecoder(r.Body).Decode(&pair); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	updated, err := s.services.Languages.Set(pair)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type submitRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSubmitText(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.services.Conversation.SubmitText(r.Context(), req.Text); err != nil {
		writeFailure(w, usecase.OpTranslate, err)
		return
	}
	writeJSON(w, http.StatusOK, s.services.Transcript.Snapshot())
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if err := s.services.Conversation.UploadDocument(r.Context(), header.Filename, file); err != nil {
		writeFailure(w, usecase.OpDocument, err)
		return
	}
	writeJSON(w, http.StatusOK, s.services.Transcript.Snapshot())
}

func (s *Server) handleToggleRecording(w http.ResponseWriter, r *http.Request) {
	state, err := s.services.Capture.Toggle(r.Context())
	if err != nil && !errors.Is(err, usecase.ErrCaptureBusy) {
		writeFailure(w, usecase.OpMicrophone, err)
		return
	}
	writeJSON(w, http.StatusOK, events.CapturePayload{State: state, Icon: state.Icon()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseExportKind(mux.Vars(r)["kind"])
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown export kind")
		return
	}

	saver := export.NewStreamSaver(w, func(artifact domain.Artifact) {
		w.Header().Set("Content-Type", artifact.MIMEType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
		w.WriteHeader(http.StatusOK)
	})
	if _, err := s.services.Export.Export(r.Context(), kind, saver); err != nil {
		op := usecase.OpExport
		if kind.ServerRendered() {
			op = usecase.OpExportPDF
		}
		writeFailure(w, op, err)
	}
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	err := s.services.Playback.Play(r.Context(), mux.Vars(r)["id"])
	switch {
	case err == nil, errors.Is(err, usecase.ErrPlaybackBusy):
		w.WriteHeader(http.StatusNoContent)
	default:
		writeFailure(w, usecase.OpSpeech, err)
	}
}

type errorResponse struct {
	Error string           `json:"error"`
	Code  domain.ErrorCode `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeFailure answers with the same line the notice carried. Once a streamed
// export has started its headers are gone, so nothing more is written.
func writeFailure(w http.ResponseWriter, op usecase.Operation, err error) {
	if w.Header().Get("Content-Disposition") != "" {
		return
	}
	writeJSON(w, statusFor(err), errorResponse{
		Error: usecase.NoticeMessage(op, err),
		Code:  usecase.Classify(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, transcript.ErrUnknownEntry):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrExportBusy):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrNotPlayable):
		return http.StatusBadRequest
	}

	switch usecase.Classify(err) {
	case domain.ErrorCodeEmptyInput:
		return http.StatusBadRequest
	case domain.ErrorCodeRateLimited:
		return http.StatusTooManyRequests
	case domain.ErrorCodeDeviceDenied:
		return http.StatusConflict
	case domain.ErrorCodeTransport:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
