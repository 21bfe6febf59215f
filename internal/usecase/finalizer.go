package usecase

import (
	"log/slog"
	"strings"

	"parley/internal/ports"
)

// transcriptFinalizer cleans recognized speech before it enters the conversation.
type transcriptFinalizer struct {
	rules  ports.RulesEngine
	logger *slog.Logger
}

func newTranscriptFinalizer(rules ports.RulesEngine, logger *slog.Logger) transcriptFinalizer {
	return transcriptFinalizer{rules: rules, logger: logger}
}

// Finalize applies the substitution rules. A failing rule set never drops the
// transcription; the raw text is used instead.
func (f transcriptFinalizer) Finalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || f.rules == nil {
		return raw
	}

	transformed, err := f.rules.Apply(raw)
	if err != nil {
		f.logger.Warn("transcript rules failed, using raw transcription", "error", err)
		return raw
	}
	return strings.TrimSpace(transformed)
}
