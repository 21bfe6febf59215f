package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"parley/internal/bootstrap"
	"parley/internal/domain"
	"parley/internal/events"
	"parley/internal/export"
	"parley/internal/ports"
	"parley/internal/usecase"
)

// dialogs abstracts the native file pickers so bindings can be exercised without a window.
type dialogs interface {
	OpenDocument(ctx context.Context) (string, error)
	SaveExport(ctx context.Context, filename string) (string, error)
}

// App is the Wails application root.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	emit    events.EmitFunc
	dialogs dialogs
	build   func(sink ports.EventSink) (bootstrap.Services, error)

	services bootstrap.Services
	ready    bool
	bootErr  error
}

func NewApp() *App {
	return &App{
		dialogs: wailsDialogs{},
		build: func(sink ports.EventSink) (bootstrap.Services, error) {
			return bootstrap.Build(sink, slog.Default())
		},
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	if a.emit == nil {
		a.emit = func(name string, payload any) {
			runtime.EventsEmit(ctx, name, payload)
		}
	}
	sink := events.NewSink(a.emit)

	services, err := a.build(sink)
	if err != nil {
		a.bootErr = err
		sink.Notice(domain.ErrorCodeStartup, "Startup failed: "+err.Error())
		return
	}

	a.services = services
	a.ready = true
	services.WatchRules(a.ctx)
	sink.CaptureStateChanged(domain.CaptureStateIdle)
	sink.TranscriptChanged(services.Transcript.Snapshot())
}

func (a *App) shutdown(_ context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.ready {
		a.services.Shutdown()
	}
}

// SubmitText translates a typed message.
func (a *App) SubmitText(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Conversation.SubmitText(a.ctx, text)
}

// UploadDocument asks for a PDF and translates its sentences in order.
// Dismissing the picker is not an error.
func (a *App) UploadDocument() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	path, err := a.dialogs.OpenDocument(a.ctx)
	if err != nil || path == "" {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		a.services.Conversation.Notify(usecase.OpDocument, err)
		return err
	}
	defer file.Close()

	return a.services.Conversation.UploadDocument(a.ctx, filepath.Base(path), file)
}

// ToggleRecording starts or stops microphone capture. Presses while the
// device is starting or stopping are ignored.
func (a *App) ToggleRecording() (domain.CaptureState, error) {
	if err := a.requireReady(); err != nil {
		return domain.CaptureStateIdle, err
	}
	state, err := a.services.Capture.Toggle(a.ctx)
	if errors.Is(err, usecase.ErrCaptureBusy) {
		return state, nil
	}
	return state, err
}

// Export writes the transcript in the requested format to a path picked in a
// native save dialog. An empty path means the dialog was dismissed or another
// export was still running.
func (a *App) Export(kind string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	exportKind, ok := domain.ParseExportKind(kind)
	if !ok {
		return "", fmt.Errorf("%w: %q", usecase.ErrUnknownExportKind, kind)
	}
	path, err := a.services.Export.Export(a.ctx, exportKind, &dialogSaver{dialogs: a.dialogs})
	if errors.Is(err, usecase.ErrExportBusy) {
		return "", nil
	}
	return path, err
}

// Play speaks an assistant entry. Presses while that entry is busy are ignored.
func (a *App) Play(entryID string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	err := a.services.Playback.Play(a.ctx, entryID)
	if errors.Is(err, usecase.ErrPlaybackBusy) {
		return nil
	}
	return err
}

// SetLanguages updates the source and target pickers.
func (a *App) SetLanguages(source string, target string) (domain.LanguagePair, error) {
	if err := a.requireReady(); err != nil {
		return domain.LanguagePair{}, err
	}
	return a.services.Languages.Set(domain.LanguagePair{Source: source, Target: target})
}

func (a *App) GetLanguages() domain.LanguagePair {
	if !a.ready {
		return usecase.DefaultLanguages
	}
	return a.services.Languages.Languages()
}

func (a *App) GetTranscript() []domain.TranscriptEntry {
	if !a.ready {
		return []domain.TranscriptEntry{}
	}
	return a.services.Transcript.Snapshot()
}

// GetStatus returns the current runtime status.
func (a *App) GetStatus() domain.Status {
	if !a.ready {
		status := domain.Status{Capture: domain.CaptureStateIdle}
		if a.bootErr != nil {
			status.Message = a.bootErr.Error()
		}
		return status
	}
	return domain.Status{
		Capture: a.services.Capture.State(),
		Entries: a.services.Transcript.Len(),
	}
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	if !a.ready {
		return map[string]string{}
	}

	cfg := a.services.Config
	return map[string]string{
		"server":           cfg.Server.BaseURL,
		"translator":       cfg.Providers.Translator,
		"transcriber":      cfg.Providers.Transcriber,
		"synthesizer":      cfg.Providers.Synthesizer,
		"voice":            cfg.Playback.Voice,
		"rulesFile":        cfg.Rules.Path,
		"audioInput":       cfg.Audio.InputDevice,
		"audioInputFormat": cfg.Audio.InputFormat,
	}
}

func (a *App) GetExportKinds() []domain.ExportKind {
	return domain.ExportKinds
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if !a.ready {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// dialogSaver asks where to put the artifact and stages it there.
type dialogSaver struct {
	dialogs dialogs
}

func (s *dialogSaver) Save(ctx context.Context, artifact domain.Artifact) (string, error) {
	destination, err := s.dialogs.SaveExport(ctx, artifact.Filename)
	if err != nil {
		return "", err
	}
	if destination == "" {
		return "", nil
	}
	if err := export.StageArtifact(ctx, destination, artifact); err != nil {
		return "", err
	}
	return destination, nil
}

type wailsDialogs struct{}

func (wailsDialogs) OpenDocument(ctx context.Context) (string, error) {
	return runtime.OpenFileDialog(ctx, runtime.OpenDialogOptions{
		Title:   "Upload PDF",
		Filters: []runtime.FileFilter{{DisplayName: "PDF documents (*.pdf)", Pattern: "*.pdf"}},
	})
}

func (wailsDialogs) SaveExport(ctx context.Context, filename string) (string, error) {
	return runtime.SaveFileDialog(ctx, runtime.SaveDialogOptions{
		Title:           "Export conversation",
		DefaultFilename: filename,
	})
}
