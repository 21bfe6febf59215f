package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"parley/internal/domain"
	"parley/internal/metrics"
	"parley/internal/ports"
	"parley/internal/transcript"
)

var ErrUnsupportedDocument = errors.New("only PDF files are supported")

// ConversationController owns the transcript and turns user input into translated turns.
type ConversationController struct {
	log        *transcript.Log
	translator ports.Translator
	extractor  ports.DocumentExtractor
	languages  ports.LanguageSelector
	events     ports.EventSink
	metrics    *metrics.Session
	logger     *slog.Logger
}

func NewConversationController(
	log *transcript.Log,
	translator ports.Translator,
	extractor ports.DocumentExtractor,
	languages ports.LanguageSelector,
	events ports.EventSink,
	sessionMetrics *metrics.Session,
	logger *slog.Logger,
) *ConversationController {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationController{
		log:        log,
		translator: translator,
		extractor:  extractor,
		languages:  languages,
		events:     events,
		metrics:    sessionMetrics,
		logger:     logger,
	}
}

// SubmitText translates one typed message. Blank input is ignored.
func (c *ConversationController) SubmitText(ctx context.Context, text string) error {
	return c.submit(ctx, text, OpTranslate)
}

// SubmitTranscribedAudio has the same contract as SubmitText for recognized speech.
func (c *ConversationController) SubmitTranscribedAudio(ctx context.Context, text string) error {
	return c.submit(ctx, text, OpAudio)
}

// SubmitDocument translates extracted sentences one at a time, in order. Each line's
// translation completes before the next line is appended.
func (c *ConversationController) SubmitDocument(ctx context.Context, sentences []string) error {
	lines := lo.FilterMap(sentences, func(sentence string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(sentence)
		return trimmed, trimmed != ""
	})
	if len(lines) == 0 {
		return nil
	}

	c.events.DocumentProgress(0, len(lines))
	for index, line := range lines {
		if err := c.runTurn(ctx, line); err != nil {
			notify(c.events, OpDocument, err)
			c.logger.Warn("document translation stopped", "line", index+1, "total", len(lines), "error", err)
			return err
		}
		c.events.DocumentProgress(index+1, len(lines))
	}
	return nil
}

// UploadDocument extracts sentences from a PDF through the extraction collaborator
// and submits them as a document.
func (c *ConversationController) UploadDocument(ctx context.Context, filename string, content io.Reader) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		err := fmt.Errorf("%w: %s", ErrUnsupportedDocument, filename)
		notify(c.events, OpDocument, err)
		return err
	}

	sentences, err := c.extractor.Extract(ctx, filename, content)
	if err != nil {
		err = fmt.Errorf("extract %s: %w", filename, err)
		notify(c.events, OpDocument, err)
		return err
	}
	if len(sentences) == 0 {
		err := fmt.Errorf("%w: no text extracted from %s", ErrEmptyInput, filename)
		notify(c.events, OpDocument, err)
		return err
	}

	c.logger.Info("document extracted", "file", filename, "sentences", len(sentences))
	return c.SubmitDocument(ctx, sentences)
}

// Notify reports a failure that happened before the document reached the
// controller, such as an unreadable upload.
func (c *ConversationController) Notify(op Operation, err error) {
	notify(c.events, op, err)
}

// Entries returns the current transcript.
func (c *ConversationController) Entries() []domain.TranscriptEntry {
	return c.log.Snapshot()
}

func (c *ConversationController) submit(ctx context.Context, text string, op Operation) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := c.runTurn(ctx, text); err != nil {
		notify(c.events, op, err)
		return err
	}
	return nil
}

func (c *ConversationController) runTurn(ctx context.Context, text string) error {
	langs := c.languages.Languages()
	_, placeholder := c.log.BeginTurn(text, langs)
	c.publish()

	started := time.Now()
	translation, err := c.translator.Translate(ctx, text, langs)
	if err == nil && strings.TrimSpace(translation) == "" {
		err = &domain.CollaboratorError{Collaborator: "translate", Message: "Failed to fetch translation"}
	}
	c.metrics.ObserveTurn(time.Since(started), err)

	if err != nil {
		if discardErr := c.log.Discard(placeholder.ID); discardErr != nil {
			c.logger.Error("failed to discard placeholder", "id", placeholder.ID, "error", discardErr)
		}
		c.publish()
		c.logger.Warn("translation failed", "source", langs.Source, "target", langs.Target, "error", err)
		return fmt.Errorf("translate: %w", err)
	}

	if _, err := c.log.Resolve(placeholder.ID, translation); err != nil {
		return fmt.Errorf("resolve placeholder: %w", err)
	}
	c.publish()
	c.logger.Debug("translation completed", "source", langs.Source, "target", langs.Target, "latency", time.Since(started))
	return nil
}

func (c *ConversationController) publish() {
	c.events.TranscriptChanged(c.log.Snapshot())
}
