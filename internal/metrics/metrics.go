package metrics

import (
	"fmt"
	"sync"
	"time"
)

// Session counts what happened during one page session.
type Session struct {
	SessionID string
	StartTime time.Time

	mu                 sync.Mutex
	turns              int
	failedTurns        int
	translationLatency time.Duration
	recordings         int
	audioBytes         int
	exports            int
	failedExports      int
	playbacks          int
	failedPlaybacks    int
}

func NewSession(sessionID string) *Session {
	return &Session{SessionID: sessionID, StartTime: time.Now()}
}

// ObserveTurn records one translation turn and how long the collaborator took.
func (m *Session) ObserveTurn(latency time.Duration, err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns++
	m.translationLatency += latency
	if err != nil {
		m.failedTurns++
	}
}

func (m *Session) ObserveRecording(audioBytes int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordings++
	m.audioBytes += audioBytes
}

func (m *Session) ObserveExport(err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports++
	if err != nil {
		m.failedExports++
	}
}

func (m *Session) ObservePlayback(err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playbacks++
	if err != nil {
		m.failedPlaybacks++
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Turns              int
	FailedTurns        int
	AverageTranslation time.Duration
	Recordings         int
	AudioBytes         int
	Exports            int
	FailedExports      int
	Playbacks          int
	FailedPlaybacks    int
}

func (m *Session) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var average time.Duration
	if m.turns > 0 {
		average = m.translationLatency / time.Duration(m.turns)
	}
	return Snapshot{
		Turns:              m.turns,
		FailedTurns:        m.failedTurns,
		AverageTranslation: average,
		Recordings:         m.recordings,
		AudioBytes:         m.audioBytes,
		Exports:            m.exports,
		FailedExports:      m.failedExports,
		Playbacks:          m.playbacks,
		FailedPlaybacks:    m.failedPlaybacks,
	}
}

func (m *Session) Summary() string {
	s := m.Snapshot()
	return fmt.Sprintf(
		"Session: %s\n"+
			"Duration: %v\n"+
			"Turns: %d (failed %d)\n"+
			"Average Translation Latency: %v\n"+
			"Recordings: %d (%d audio bytes)\n"+
			"Exports: %d (failed %d)\n"+
			"Playbacks: %d (failed %d)\n",
		m.SessionID,
		time.Since(m.StartTime).Truncate(time.Second),
		s.Turns, s.FailedTurns,
		s.AverageTranslation,
		s.Recordings, s.AudioBytes,
		s.Exports, s.FailedExports,
		s.Playbacks, s.FailedPlaybacks,
	)
}
