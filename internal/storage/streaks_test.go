package storage

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func importResults(t *testing.T, service *Service, prefix string, start time.Time, step time.Duration, results ...string) {
	t.Helper()

	for i, result := range results {
		m := &Match{
			ID:              fmt.Sprintf("%s%02d", prefix, i),
			GameID:          i,
			Player:          "Me",
			Opponent:        "Them",
			Result:          result,
			PlayerRegions:   []string{},
			OpponentRegions: []string{},
			StartedAt:       start.Add(time.Duration(i) * step),
		}
		if err := service.ImportMatch(context.Background(), m, nil); err != nil {
			t.Fatalf("failed to import match %d: %v", i, err)
		}
	}
}

func TestService_GetStreaks(t *testing.T) {
	service := NewTestService(t)
	ctx := context.Background()

	empty, err := service.GetStreaks(ctx, StatsFilter{})
	if err != nil {
		t.Fatalf("GetStreaks failed: %v", err)
	}
	if empty.CurrentStreak != 0 || empty.LastPlayed != nil {
		t.Errorf("expected empty streak data, got %+v", empty)
	}

	start := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	importResults(t, service, "m", start, time.Hour,
		ResultWin, ResultWin, ResultLoss,
		ResultWin, ResultWin, ResultUnknown, ResultWin, ResultWin, ResultWin,
		ResultLoss, ResultLoss)

	data, err := service.GetStreaks(ctx, StatsFilter{})
	if err != nil {
		t.Fatalf("GetStreaks failed: %v", err)
	}
	if data.LongestWinStreak != 5 {
		t.Errorf("expected longest win streak 5 across the unknown result, got %d", data.LongestWinStreak)
	}
	if data.WinStreaksOver5 != 1 {
		t.Errorf("expected 1 streak of five wins, got %d", data.WinStreaksOver5)
	}
	if data.LongestLossStreak != 2 {
		t.Errorf("expected longest loss streak 2, got %d", data.LongestLossStreak)
	}
	if data.CurrentStreak != 2 || data.CurrentStreakType != ResultLoss {
		t.Errorf("expected current 2-game loss streak, got %d %s", data.CurrentStreak, data.CurrentStreakType)
	}
	if data.LastResult != ResultLoss {
		t.Errorf("expected last result loss, got %s", data.LastResult)
	}

	history, err := service.GetStreakHistory(ctx, StatsFilter{}, 2)
	if err != nil {
		t.Fatalf("GetStreakHistory failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 streaks of at least 2 games, got %d", len(history))
	}
	if history[0].Type != ResultLoss || history[1].Length != 5 || history[2].Length != 2 {
		t.Errorf("unexpected history %+v", history)
	}
	if !history[1].StartAt.Equal(start.Add(3*time.Hour)) || !history[1].EndAt.Equal(start.Add(8*time.Hour)) {
		t.Errorf("unexpected bounds for the win streak: %v to %v", history[1].StartAt, history[1].EndAt)
	}
}

func TestService_GetTimePatterns(t *testing.T) {
	service := NewTestService(t)
	ctx := context.Background()

	// 2024-03-04 is a Monday.
	monday := time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)
	importResults(t, service, "mon", monday, time.Minute, ResultWin, ResultWin, ResultWin, ResultLoss)
	tuesday := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	importResults(t, service, "tue", tuesday, time.Minute, ResultLoss, ResultLoss, ResultWin)

	patterns, err := service.GetTimePatterns(ctx, StatsFilter{}, time.UTC)
	if err != nil {
		t.Fatalf("GetTimePatterns failed: %v", err)
	}
	if len(patterns.Hours) != 24 || len(patterns.Weekdays) != 7 {
		t.Fatalf("expected 24 hours and 7 weekdays, got %d and %d", len(patterns.Hours), len(patterns.Weekdays))
	}

	evening := patterns.Hours[20]
	if evening.Matches != 4 || evening.Wins != 3 || evening.WinRate != 0.75 {
		t.Errorf("unexpected 20:00 stats %+v", evening)
	}
	if patterns.Weekdays[1].Label != "Monday" || patterns.Weekdays[1].Matches != 4 {
		t.Errorf("unexpected Monday stats %+v", patterns.Weekdays[1])
	}
	if patterns.BestHour != 20 || patterns.WorstHour != 9 {
		t.Errorf("expected best hour 20 and worst 9, got %d and %d", patterns.BestHour, patterns.WorstHour)
	}
	if patterns.BestWeekday != 1 || patterns.WorstWeekday != 2 {
		t.Errorf("expected best Monday and worst Tuesday, got %d and %d", patterns.BestWeekday, patterns.WorstWeekday)
	}
	if patterns.MostActiveHour != 20 {
		t.Errorf("expected most active hour 20, got %d", patterns.MostActiveHour)
	}

	shifted, err := service.GetTimePatterns(ctx, StatsFilter{}, time.FixedZone("UTC+5", 5*3600))
	if err != nil {
		t.Fatalf("GetTimePatterns failed: %v", err)
	}
	if shifted.Hours[1].Matches != 4 || shifted.Weekdays[2].Matches != 7 {
		t.Errorf("expected matches shifted into Tuesday 01:00, got %+v", shifted.Hours[1])
	}
}
