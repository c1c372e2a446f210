package storage

import "github.com/ramonehamilton/LoR-Companion/internal/storage/models"

type (
	Match              = models.Match
	MatchCard          = models.MatchCard
	Deck               = models.Deck
	ExpeditionSnapshot = models.ExpeditionSnapshot
	StatsFilter        = models.StatsFilter
	Statistics         = models.Statistics
	RegionStats        = models.RegionStats
	CardUsage          = models.CardUsage
)

const (
	ResultWin     = models.ResultWin
	ResultLoss    = models.ResultLoss
	ResultUnknown = models.ResultUnknown

	SidePlayer   = models.SidePlayer
	SideOpponent = models.SideOpponent
)
