package storage

import (
	"context"
	"fmt"
	"time"
)

// StreakData summarizes consecutive results. Games without a known result
// neither extend nor break a streak.
type StreakData struct {
	CurrentStreak     int
	CurrentStreakType string // ResultWin, ResultLoss or "" with no decided games
	LongestWinStreak  int
	LongestLossStreak int
	WinStreaksOver5   int
	LastResult        string
	LastPlayed        *time.Time
}

// Streak is one run of identical results.
type Streak struct {
	Type    string
	Length  int
	StartAt time.Time
	EndAt   time.Time
}

// collectStreaks splits chronologically ordered matches into runs.
func collectStreaks(matches []*Match) []Streak {
	var streaks []Streak
	for _, m := range matches {
		if m.Result != ResultWin && m.Result != ResultLoss {
			continue
		}
		if n := len(streaks); n > 0 && streaks[n-1].Type == m.Result {
			streaks[n-1].Length++
			streaks[n-1].EndAt = m.StartedAt
			continue
		}
		streaks = append(streaks, Streak{Type: m.Result, Length: 1, StartAt: m.StartedAt, EndAt: m.StartedAt})
	}
	return streaks
}

// GetStreaks calculates streak statistics over the matches passing filter.
func (s *Service) GetStreaks(ctx context.Context, filter StatsFilter) (*StreakData, error) {
	matches, err := s.matches.GetMatches(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}

	data := &StreakData{}
	if len(matches) == 0 {
		return data, nil
	}

	last := matches[len(matches)-1]
	data.LastResult = last.Result
	lastPlayed := last.StartedAt
	data.LastPlayed = &lastPlayed

	streaks := collectStreaks(matches)
	for _, streak := range streaks {
		switch streak.Type {
		case ResultWin:
			data.LongestWinStreak = max(data.LongestWinStreak, streak.Length)
			if streak.Length >= 5 {
				data.WinStreaksOver5++
			}
		case ResultLoss:
			data.LongestLossStreak = max(data.LongestLossStreak, streak.Length)
		}
	}

	if n := len(streaks); n > 0 {
		data.CurrentStreak = streaks[n-1].Length
		data.CurrentStreakType = streaks[n-1].Type
	}
	return data, nil
}

// GetStreakHistory returns every streak of at least minLength games, newest
// first.
func (s *Service) GetStreakHistory(ctx context.Context, filter StatsFilter, minLength int) ([]Streak, error) {
	matches, err := s.matches.GetMatches(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}

	history := []Streak{}
	streaks := collectStreaks(matches)
	for i := len(streaks) - 1; i >= 0; i-- {
		if streaks[i].Length >= minLength {
			history = append(history, streaks[i])
		}
	}
	return history, nil
}
