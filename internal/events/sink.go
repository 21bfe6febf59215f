// Package events turns adapter callbacks into named page events shared by the
// desktop bindings and the websocket stream.
package events

import (
	"parley/internal/domain"
)

const (
	NameTranscript = "parley:transcript"
	NameCapture    = "parley:capture"
	NamePlayback   = "parley:playback"
	NameProgress   = "parley:progress"
	NameNotice     = "parley:notice"
)

// EmitFunc delivers one named event to the page.
type EmitFunc func(name string, payload any)

type CapturePayload struct {
	State domain.CaptureState `json:"state"`
	Icon  string              `json:"icon"`
}

type PlaybackPayload struct {
	EntryID string               `json:"entryId"`
	State   domain.PlaybackState `json:"state"`
	Icon    string               `json:"icon"`
}

type ProgressPayload struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

type NoticePayload struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// Sink implements ports.EventSink on top of an EmitFunc.
type Sink struct {
	emit EmitFunc
}

func NewSink(emit EmitFunc) *Sink {
	return &Sink{emit: emit}
}

func (s *Sink) TranscriptChanged(entries []domain.TranscriptEntry) {
	if entries == nil {
		entries = []domain.TranscriptEntry{}
	}
	s.send(NameTranscript, entries)
}

func (s *Sink) CaptureStateChanged(state domain.CaptureState) {
	s.send(NameCapture, CapturePayload{State: state, Icon: state.Icon()})
}

func (s *Sink) PlaybackStateChanged(entryID string, state domain.PlaybackState) {
	s.send(NamePlayback, PlaybackPayload{EntryID: entryID, State: state, Icon: state.Icon()})
}

func (s *Sink) DocumentProgress(done int, total int) {
	s.send(NameProgress, ProgressPayload{Done: done, Total: total})
}

func (s *Sink) Notice(code domain.ErrorCode, message string) {
	s.send(NameNotice, NoticePayload{Code: code, Message: message})
}

func (s *Sink) send(name string, payload any) {
	if s == nil || s.emit == nil {
		return
	}
	s.emit(name, payload)
}
