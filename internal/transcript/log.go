package transcript

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"parley/internal/domain"
)

var (
	ErrUnknownEntry      = errors.New("transcript entry not found")
	ErrNotPlaceholder    = errors.New("transcript entry is not a placeholder")
	ErrUnpairedAssistant = errors.New("assistant entry has no preceding user entry")
)

// Log is the ordered, in-memory conversation transcript. Entries are only appended;
// a placeholder is swapped for a fresh entry at the same position or dropped.
type Log struct {
	mu      sync.RWMutex
	entries []domain.TranscriptEntry
	now     func() time.Time
	newID   func() string
}

func NewLog() *Log {
	return &Log{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// BeginTurn appends a user entry and its assistant placeholder as one step.
func (l *Log) BeginTurn(text string, langs domain.LanguagePair) (user domain.TranscriptEntry, placeholder domain.TranscriptEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	created := l.now()
	user = domain.TranscriptEntry{
		ID:        l.newID(),
		Role:      domain.RoleUser,
		Text:      text,
		Languages: langs,
		CreatedAt: created,
	}
	placeholder = domain.TranscriptEntry{
		ID:          l.newID(),
		Role:        domain.RoleAssistant,
		Placeholder: true,
		Languages:   langs,
		CreatedAt:   created,
	}
	l.entries = append(l.entries, user, placeholder)
	return user, placeholder
}

// Resolve replaces the placeholder with a new assistant entry carrying text.
func (l *Log) Resolve(placeholderID string, text string) (domain.TranscriptEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	index, err := l.placeholderIndex(placeholderID)
	if err != nil {
		return domain.TranscriptEntry{}, err
	}

	entry := domain.TranscriptEntry{
		ID:        l.newID(),
		Role:      domain.RoleAssistant,
		Text:      text,
		Languages: l.entries[index].Languages,
		CreatedAt: l.now(),
	}
	l.entries[index] = entry
	return entry, nil
}

// Discard removes the placeholder without touching any other entry.
func (l *Log) Discard(placeholderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	index, err := l.placeholderIndex(placeholderID)
	if err != nil {
		return err
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return nil
}

// Get returns the entry with the given id.
func (l *Log) Get(id string) (domain.TranscriptEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, entry := range l.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return domain.TranscriptEntry{}, false
}

// Snapshot returns a copy of all entries, placeholders included.
func (l *Log) Snapshot() []domain.TranscriptEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.TranscriptEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries, placeholders included.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Pairs reconstructs (original, translated) tuples in transcript order.
func (l *Log) Pairs() ([]domain.Pair, error) {
	return PairEntries(l.Snapshot())
}

// PairEntries pairs each assistant entry with the user entry right before it.
// A user entry that never got an answer is skipped.
func PairEntries(entries []domain.TranscriptEntry) ([]domain.Pair, error) {
	pairs := make([]domain.Pair, 0, len(entries)/2)
	var pending *domain.TranscriptEntry

	for i := range entries {
		entry := entries[i]
		if entry.Placeholder {
			continue
		}
		switch entry.Role {
		case domain.RoleUser:
			pending = &entries[i]
		case domain.RoleAssistant:
			if pending == nil {
				return nil, fmt.Errorf("%w: entry %d (%s)", ErrUnpairedAssistant, i, entry.ID)
			}
			pairs = append(pairs, domain.Pair{
				Original:   pending.Text,
				Translated: entry.Text,
				Languages:  pending.Languages,
			})
			pending = nil
		}
	}
	return pairs, nil
}

func (l *Log) placeholderIndex(id string) (int, error) {
	for i, entry := range l.entries {
		if entry.ID != id {
			continue
		}
		if !entry.Placeholder {
			return -1, ErrNotPlaceholder
		}
		return i, nil
	}
	return -1, ErrUnknownEntry
}
