package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// TrackerMetrics tracks the health of the polling loop.
type TrackerMetrics struct {
	// Latency histograms (in milliseconds)
	PollLatency  *Histogram
	FrameLatency *Histogram

	// Counters
	Polls          atomic.Uint64
	PollErrors     atomic.Uint64
	Frames         atomic.Uint64
	DroppedRects   atomic.Uint64
	PlayerCards    atomic.Uint64
	OpponentCards  atomic.Uint64
	MatchesStarted atomic.Uint64
	MatchesEnded   atomic.Uint64
	SaveErrors     atomic.Uint64

	startTime time.Time
	mu        sync.RWMutex
}

// NewTrackerMetrics creates a new metrics collector.
func NewTrackerMetrics() *TrackerMetrics {
	return &TrackerMetrics{
		PollLatency:  NewHistogram(5000),
		FrameLatency: NewHistogram(5000),
		startTime:    time.Now(),
	}
}

// RecordPoll records one poll of the local API and whether it failed.
func (m *TrackerMetrics) RecordPoll(d time.Duration, err error) {
	m.Polls.Add(1)
	m.PollLatency.Record(d)
	if err != nil {
		m.PollErrors.Add(1)
	}
}

// RecordFrame records one frame folded into a game.
func (m *TrackerMetrics) RecordFrame(d time.Duration, dropped, newPlayer, newOpponent int) {
	m.Frames.Add(1)
	m.FrameLatency.Record(d)
	m.DroppedRects.Add(uint64(dropped))
	m.PlayerCards.Add(uint64(newPlayer))
	m.OpponentCards.Add(uint64(newOpponent))
}

// TrackerStats is a point-in-time copy of the metrics.
type TrackerStats struct {
	PollLatency  LatencyStats `json:"poll_latency"`
	FrameLatency LatencyStats `json:"frame_latency"`

	Polls          uint64  `json:"polls"`
	PollErrors     uint64  `json:"poll_errors"`
	PollErrorRate  float64 `json:"poll_error_rate"` // percentage
	Frames         uint64  `json:"frames"`
	DroppedRects   uint64  `json:"dropped_rectangles"`
	PlayerCards    uint64  `json:"player_cards"`
	OpponentCards  uint64  `json:"opponent_cards"`
	MatchesStarted uint64  `json:"matches_started"`
	MatchesEnded   uint64  `json:"matches_ended"`
	SaveErrors     uint64  `json:"save_errors"`
	Uptime         string  `json:"uptime"`
}

// GetStats returns a snapshot of the current statistics.
func (m *TrackerMetrics) GetStats() *TrackerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	polls := m.Polls.Load()
	pollErrors := m.PollErrors.Load()

	errorRate := 0.0
	if polls > 0 {
		errorRate = float64(pollErrors) / float64(polls) * 100
	}

	return &TrackerStats{
		PollLatency:    m.PollLatency.Stats(),
		FrameLatency:   m.FrameLatency.Stats(),
		Polls:          polls,
		PollErrors:     pollErrors,
		PollErrorRate:  errorRate,
		Frames:         m.Frames.Load(),
		DroppedRects:   m.DroppedRects.Load(),
		PlayerCards:    m.PlayerCards.Load(),
		OpponentCards:  m.OpponentCards.Load(),
		MatchesStarted: m.MatchesStarted.Load(),
		MatchesEnded:   m.MatchesEnded.Load(),
		SaveErrors:     m.SaveErrors.Load(),
		Uptime:         time.Since(m.startTime).Round(time.Second).String(),
	}
}

// Reset clears all metrics.
func (m *TrackerMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PollLatency.Reset()
	m.FrameLatency.Reset()
	for _, c := range []*atomic.Uint64{
		&m.Polls, &m.PollErrors, &m.Frames, &m.DroppedRects, &m.PlayerCards,
		&m.OpponentCards, &m.MatchesStarted, &m.MatchesEnded, &m.SaveErrors,
	} {
		c.Store(0)
	}
	m.startTime = time.Now()
}
