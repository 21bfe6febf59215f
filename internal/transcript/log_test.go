package transcript

import (
	"errors"
	"testing"

	"parley/internal/domain"
)

var enAr = domain.LanguagePair{Source: "English", Target: "Arabic"}

func TestLogBeginTurnAndResolve(t *testing.T) {
	t.Parallel()

	log := NewLog()
	user, placeholder := log.BeginTurn("Hello", enAr)
	if user.Role != domain.RoleUser || user.Text != "Hello" {
		t.Fatalf("unexpected user entry: %+v", user)
	}
	if !placeholder.Placeholder || placeholder.Role != domain.RoleAssistant {
		t.Fatalf("unexpected placeholder: %+v", placeholder)
	}

	resolved, err := log.Resolve(placeholder.ID, "مرحبا")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.ID == placeholder.ID {
		t.Fatalf("expected a fresh entry id on resolve")
	}
	if resolved.Placeholder {
		t.Fatalf("resolved entry must not be a placeholder")
	}

	entries := log.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].ID != resolved.ID || entries[1].Text != "مرحبا" {
		t.Fatalf("placeholder was not replaced in position: %+v", entries[1])
	}
	if _, ok := log.Get(placeholder.ID); ok {
		t.Fatalf("placeholder should be gone")
	}
}

func TestLogDiscardKeepsPriorEntries(t *testing.T) {
	t.Parallel()

	log := NewLog()
	_, first := log.BeginTurn("A", enAr)
	if _, err := log.Resolve(first.ID, "B"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	_, second := log.BeginTurn("C", enAr)
	if err := log.Discard(second.ID); err != nil {
		t.Fatalf("discard failed: %v", err)
	}

	entries := log.Snapshot()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Text != "A" || entries[1].Text != "B" || entries[2].Text != "C" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLogResolveRejectsNonPlaceholder(t *testing.T) {
	t.Parallel()

	log := NewLog()
	user, _ := log.BeginTurn("A", enAr)
	if _, err := log.Resolve(user.ID, "x"); !errors.Is(err, ErrNotPlaceholder) {
		t.Fatalf("expected ErrNotPlaceholder, got %v", err)
	}
	if err := log.Discard("missing"); !errors.Is(err, ErrUnknownEntry) {
		t.Fatalf("expected ErrUnknownEntry, got %v", err)
	}
}

func TestPairsInOrder(t *testing.T) {
	t.Parallel()

	log := NewLog()
	_, p1 := log.BeginTurn("A", enAr)
	_, p2 := log.BeginTurn("C", enAr)
	if _, err := log.Resolve(p2.ID, "D"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, err := log.Resolve(p1.ID, "B"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	pairs, err := log.Pairs()
	if err != nil {
		t.Fatalf("pairs failed: %v", err)
	}
	want := []domain.Pair{
		{Original: "A", Translated: "B", Languages: enAr},
		{Original: "C", Translated: "D", Languages: enAr},
	}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %d", len(want), len(pairs))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Fatalf("pair %d: got %+v want %+v", i, pairs[i], want[i])
		}
	}
}

func TestPairEntriesSkipsUnansweredAndPlaceholders(t *testing.T) {
	t.Parallel()

	entries := []domain.TranscriptEntry{
		{Role: domain.RoleUser, Text: "lost"},
		{Role: domain.RoleUser, Text: "A"},
		{Role: domain.RoleAssistant, Text: "B"},
		{Role: domain.RoleUser, Text: "C"},
		{Role: domain.RoleAssistant, Placeholder: true},
	}
	pairs, err := PairEntries(entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Original != "A" || pairs[0].Translated != "B" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}

func TestPairEntriesRejectsConsecutiveAssistants(t *testing.T) {
	t.Parallel()

	entries := []domain.TranscriptEntry{
		{Role: domain.RoleUser, Text: "A"},
		{Role: domain.RoleAssistant, Text: "B"},
		{Role: domain.RoleAssistant, Text: "B2"},
	}
	if _, err := PairEntries(entries); !errors.Is(err, ErrUnpairedAssistant) {
		t.Fatalf("expected ErrUnpairedAssistant, got %v", err)
	}
}

func TestPairsEmpty(t *testing.T) {
	t.Parallel()

	pairs, err := NewLog().Pairs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(pairs))
	}
}
