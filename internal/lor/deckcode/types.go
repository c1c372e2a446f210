// Package deckcode encodes and decodes Legends of Runeterra deck codes.
//
// A deck code is an unpadded base32 string over a varint byte stream: one
// format/version byte, then the 3-of, 2-of and 1-of sections (cards grouped by
// set and faction), then every card with a count above three.
package deckcode

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

const (
	Format uint8 = 1

	MaxKnownVersion uint8  = 5
	MaxKnownSet     uint64 = 9
	MaxCardNumber   uint64 = 999

	initialVersion uint8 = 1
)

var (
	ErrUnknownVersion       = errors.New("unknown version")
	ErrUnknownSet           = errors.New("unknown set")
	ErrUnknownFaction       = errors.New("unknown faction")
	ErrUnexpectedCardNumber = errors.New("unexpected card number")
	ErrInvalidCount         = errors.New("invalid card count")
	ErrInvalidCode          = errors.New("invalid deck code")
	ErrInvalidCardCode      = errors.New("invalid card code")
)

var (
	factionsMap = map[uint64]string{
		0:  "DE",
		1:  "FR",
		2:  "IO",
		3:  "NX",
		4:  "PZ",
		5:  "SI",
		6:  "BW",
		7:  "SH",
		9:  "MT",
		10: "BC",
		12: "RU",
	}

	factionIDs = func() map[string]uint64 {
		ids := make(map[string]uint64, len(factionsMap))
		for id, abbr := range factionsMap {
			ids[abbr] = id
		}
		return ids
	}()

	// minimum format version able to carry each faction
	factionVersions = map[string]uint8{
		"DE": 1,
		"FR": 1,
		"IO": 1,
		"NX": 1,
		"PZ": 1,
		"SI": 1,
		"BW": 2,
		"MT": 2,
		"SH": 3,
		"BC": 4,
		"RU": 5,
	}
)

// CardCodeAndCount is one entry of a deck.
type CardCodeAndCount struct {
	CardCode string `json:"cardCode"`
	Count    uint64 `json:"count"`
}

// Deck is an ordered list of card codes and counts.
type Deck []CardCodeAndCount

// CardCode is a parsed card code such as "01SI001".
type CardCode struct {
	Set     uint64
	Faction string
	Number  uint64
}

// String formats the code back to its canonical form.
func (c CardCode) String() string {
	return fmt.Sprintf("%02d%s%03d", c.Set, c.Faction, c.Number)
}

func (c CardCode) factionID() uint64 {
	return factionIDs[c.Faction]
}

// ParseCardCode splits a card code into its set, faction and card number.
func ParseCardCode(code string) (CardCode, error) {
	if len(code) != 7 {
		return CardCode{}, errors.Wrapf(ErrInvalidCardCode, "%q", code)
	}

	set, err := strconv.ParseUint(code[0:2], 10, 64)
	if err != nil {
		return CardCode{}, errors.Wrapf(ErrInvalidCardCode, "%q: set", code)
	}
	if set > MaxKnownSet {
		return CardCode{}, errors.Wrapf(ErrUnknownSet, "%q", code)
	}

	faction := code[2:4]
	if _, ok := factionIDs[faction]; !ok {
		return CardCode{}, errors.Wrapf(ErrUnknownFaction, "%q", code)
	}

	number, err := strconv.ParseUint(code[4:7], 10, 64)
	if err != nil {
		return CardCode{}, errors.Wrapf(ErrInvalidCardCode, "%q: number", code)
	}
	if number > MaxCardNumber {
		return CardCode{}, errors.Wrapf(ErrUnexpectedCardNumber, "%q", code)
	}

	return CardCode{Set: set, Faction: faction, Number: number}, nil
}
