package storage

import (
	"context"
	"fmt"
	"time"
)

// PeriodStats holds results for one hour of the day or one weekday.
type PeriodStats struct {
	Period  int // hour 0-23 or weekday 0 (Sunday) to 6
	Label   string
	Matches int
	Wins    int
	Losses  int
	WinRate float64
}

func (p *PeriodStats) add(result string) {
	p.Matches++
	switch result {
	case ResultWin:
		p.Wins++
	case ResultLoss:
		p.Losses++
	}
}

func (p *PeriodStats) finish() {
	if decided := p.Wins + p.Losses; decided > 0 {
		p.WinRate = float64(p.Wins) / float64(decided)
	}
}

// TimePatterns groups results by local hour of day and weekday.
type TimePatterns struct {
	Hours    []PeriodStats // always 24 entries
	Weekdays []PeriodStats // always 7 entries, Sunday first

	// Best and worst consider only periods with at least minPatternGames
	// decided games; -1 when none qualifies.
	BestHour       int
	WorstHour      int
	BestWeekday    int
	WorstWeekday   int
	MostActiveHour int
}

// minPatternGames is the decided-game count a period needs to be ranked.
const minPatternGames = 3

// GetTimePatterns groups the matches passing filter by start time in loc.
// A nil loc uses time.Local.
func (s *Service) GetTimePatterns(ctx context.Context, filter StatsFilter, loc *time.Location) (*TimePatterns, error) {
	if loc == nil {
		loc = time.Local
	}

	matches, err := s.matches.GetMatches(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}

	patterns := &TimePatterns{
		Hours:    make([]PeriodStats, 24),
		Weekdays: make([]PeriodStats, 7),
	}
	for h := range patterns.Hours {
		patterns.Hours[h] = PeriodStats{Period: h, Label: fmt.Sprintf("%02d:00", h)}
	}
	for d := range patterns.Weekdays {
		patterns.Weekdays[d] = PeriodStats{Period: d, Label: time.Weekday(d).String()}
	}

	for _, m := range matches {
		started := m.StartedAt.In(loc)
		patterns.Hours[started.Hour()].add(m.Result)
		patterns.Weekdays[int(started.Weekday())].add(m.Result)
	}

	for i := range patterns.Hours {
		patterns.Hours[i].finish()
	}
	for i := range patterns.Weekdays {
		patterns.Weekdays[i].finish()
	}

	patterns.BestHour, patterns.WorstHour = rankPeriods(patterns.Hours)
	patterns.BestWeekday, patterns.WorstWeekday = rankPeriods(patterns.Weekdays)

	patterns.MostActiveHour = -1
	for _, h := range patterns.Hours {
		if h.Matches > 0 && (patterns.MostActiveHour < 0 || h.Matches > patterns.Hours[patterns.MostActiveHour].Matches) {
			patterns.MostActiveHour = h.Period
		}
	}
	return patterns, nil
}

// rankPeriods returns the periods with the highest and lowest win rate.
// Ties go to the earlier period.
func rankPeriods(periods []PeriodStats) (best, worst int) {
	best, worst = -1, -1
	for _, p := range periods {
		if p.Wins+p.Losses < minPatternGames {
			continue
		}
		if best < 0 || p.WinRate > periods[best].WinRate {
			best = p.Period
		}
		if worst < 0 || p.WinRate < periods[worst].WinRate {
			worst = p.Period
		}
	}
	return best, worst
}
