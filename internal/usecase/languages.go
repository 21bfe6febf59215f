package usecase

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"

	"parley/internal/domain"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Languages offered by the source and target pickers.
var Languages = []string{"English", "Arabic"}

// DefaultLanguages is the selection shown when the page first loads.
var DefaultLanguages = domain.LanguagePair{Source: "English", Target: "Arabic"}

// LanguageSelection holds the pickers' current values. Collaborator calls read
// it at call time, so a change applies to the next line of a running document.
type LanguageSelection struct {
	mu   sync.RWMutex
	pair domain.LanguagePair
}

func NewLanguageSelection(initial domain.LanguagePair) *LanguageSelection {
	if initial.Source == "" || initial.Target == "" {
		initial = DefaultLanguages
	}
	return &LanguageSelection{pair: initial}
}

func (s *LanguageSelection) Languages() domain.LanguagePair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

// Set replaces the selection. Both names must be offered languages.
func (s *LanguageSelection) Set(pair domain.LanguagePair) (domain.LanguagePair, error) {
	pair.Source = strings.TrimSpace(pair.Source)
	pair.Target = strings.TrimSpace(pair.Target)
	for _, name := range []string{pair.Source, pair.Target} {
		if !lo.Contains(Languages, name) {
			return s.Languages(), fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
		}
	}

	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()
	return pair, nil
}
