package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"parley/internal/domain"
	"parley/internal/metrics"
	"parley/internal/ports"
	"parley/internal/transcript"
)

var (
	ErrExportBusy        = errors.New("an export is already in progress")
	ErrUnknownExportKind = errors.New("unknown export kind")
)

// ExportAdapter turns the transcript into a downloadable file. It never mutates
// the transcript.
type ExportAdapter struct {
	log      *transcript.Log
	builder  ports.ArtifactBuilder
	renderer ports.PDFRenderer
	events   ports.EventSink
	metrics  *metrics.Session
	logger   *slog.Logger

	busy atomic.Bool
}

func NewExportAdapter(
	log *transcript.Log,
	builder ports.ArtifactBuilder,
	renderer ports.PDFRenderer,
	events ports.EventSink,
	sessionMetrics *metrics.Session,
	logger *slog.Logger,
) *ExportAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportAdapter{
		log:      log,
		builder:  builder,
		renderer: renderer,
		events:   events,
		metrics:  sessionMetrics,
		logger:   logger,
	}
}

// Export builds the requested kind and hands it to saver. It returns where the
// file went; an empty path with a nil error means the user dismissed the save.
func (e *ExportAdapter) Export(ctx context.Context, kind domain.ExportKind, saver ports.FileSaver) (string, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return "", ErrExportBusy
	}
	defer e.busy.Store(false)

	path, err := e.export(ctx, kind, saver)
	if err != nil {
		op := OpExport
		if kind.ServerRendered() {
			op = OpExportPDF
		}
		notify(e.events, op, err)
		if !errors.Is(err, ErrNothingToExport) {
			e.metrics.ObserveExport(err)
			e.logger.Warn("export failed", "kind", kind, "error", err)
		}
		return "", err
	}

	if path == "" {
		e.logger.Info("export dismissed", "kind", kind)
		return "", nil
	}
	e.metrics.ObserveExport(nil)
	e.logger.Info("export saved", "kind", kind, "path", path)
	return path, nil
}

func (e *ExportAdapter) export(ctx context.Context, kind domain.ExportKind, saver ports.FileSaver) (string, error) {
	if _, ok := domain.ParseExportKind(string(kind)); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownExportKind, kind)
	}

	pairs, err := e.log.Pairs()
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	if len(pairs) == 0 {
		return "", ErrNothingToExport
	}

	var artifact domain.Artifact
	if kind.ServerRendered() {
		data, err := e.renderer.RenderPDF(ctx, pairs, kind)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", kind, err)
		}
		artifact = domain.Artifact{Filename: kind.Filename(), MIMEType: kind.MIMEType(), Data: data}
	} else {
		artifact, err = e.builder.Build(kind, pairs)
		if err != nil {
			return "", fmt.Errorf("build %s: %w", kind, err)
		}
	}

	path, err := saver.Save(ctx, artifact)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", artifact.Filename, err)
	}
	return path, nil
}
