package deckcode

import (
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

type parsedEntry struct {
	code  CardCode
	raw   string
	count uint64
}

// Encode returns the deck code for the given cards. The input order does not
// affect the result.
func Encode(deck Deck) (string, error) {
	entries := make([]parsedEntry, 0, len(deck))
	version := initialVersion

	for _, c := range deck {
		if c.Count == 0 {
			return "", errors.Wrapf(ErrInvalidCount, "%s: %d", c.CardCode, c.Count)
		}
		code, err := ParseCardCode(c.CardCode)
		if err != nil {
			return "", err
		}
		if v := factionVersions[code.Faction]; v > version {
			version = v
		}
		entries = append(entries, parsedEntry{code: code, raw: code.String(), count: c.Count})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].raw < entries[j].raw
	})

	var of3, of2, of1, ofN []parsedEntry
	for _, e := range entries {
		switch {
		case e.count == 3:
			of3 = append(of3, e)
		case e.count == 2:
			of2 = append(of2, e)
		case e.count == 1:
			of1 = append(of1, e)
		default:
			ofN = append(ofN, e)
		}
	}

	buf := []byte{Format<<4 | version&0x0F}
	buf = appendGroups(buf, groupBySetAndFaction(of3))
	buf = appendGroups(buf, groupBySetAndFaction(of2))
	buf = appendGroups(buf, groupBySetAndFaction(of1))

	for _, e := range ofN {
		buf = binary.AppendUvarint(buf, e.count)
		buf = binary.AppendUvarint(buf, e.code.Set)
		buf = binary.AppendUvarint(buf, e.code.factionID())
		buf = binary.AppendUvarint(buf, e.code.Number)
	}

	return encoding.EncodeToString(buf), nil
}

// groupBySetAndFaction groups already-sorted entries, then orders the groups
// by size and first card code.
func groupBySetAndFaction(entries []parsedEntry) [][]parsedEntry {
	var groups [][]parsedEntry
	index := make(map[string]int)

	for _, e := range entries {
		key := fmt.Sprintf("%02d%s", e.code.Set, e.code.Faction)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) < len(groups[j])
		}
		return groups[i][0].raw < groups[j][0].raw
	})

	return groups
}

func appendGroups(buf []byte, groups [][]parsedEntry) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(groups)))
	for _, group := range groups {
		buf = binary.AppendUvarint(buf, uint64(len(group)))
		buf = binary.AppendUvarint(buf, group[0].code.Set)
		buf = binary.AppendUvarint(buf, group[0].code.factionID())
		for _, e := range group {
			buf = binary.AppendUvarint(buf, e.code.Number)
		}
	}
	return buf
}

// Decode parses a deck code back into its cards.
func Decode(code string) (Deck, error) {
	data, err := encoding.DecodeString(code)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidCode, err.Error())
	}
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidCode, "empty")
	}

	format := data[0] >> 4
	version := data[0] & 0x0F
	if format != Format {
		return nil, errors.Wrapf(ErrInvalidCode, "format %d", format)
	}
	if version > MaxKnownVersion {
		return nil, errors.Wrapf(ErrUnknownVersion, "%d", version)
	}

	r := &reader{data: data, pos: 1}
	deck := Deck{}

	for count := uint64(3); count >= 1; count-- {
		groups, err := r.next()
		if err != nil {
			return nil, err
		}
		for g := uint64(0); g < groups; g++ {
			size, err := r.next()
			if err != nil {
				return nil, err
			}
			set, faction, err := r.setAndFaction()
			if err != nil {
				return nil, err
			}
			for n := uint64(0); n < size; n++ {
				number, err := r.next()
				if err != nil {
					return nil, err
				}
				cc := CardCode{Set: set, Faction: faction, Number: number}
				deck = append(deck, CardCodeAndCount{CardCode: cc.String(), Count: count})
			}
		}
	}

	for !r.done() {
		count, err := r.next()
		if err != nil {
			return nil, err
		}
		set, faction, err := r.setAndFaction()
		if err != nil {
			return nil, err
		}
		number, err := r.next()
		if err != nil {
			return nil, err
		}
		cc := CardCode{Set: set, Faction: faction, Number: number}
		deck = append(deck, CardCodeAndCount{CardCode: cc.String(), Count: count})
	}

	return deck, nil
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) done() bool {
	return r.pos >= len(r.data)
}

func (r *reader) next() (uint64, error) {
	if r.done() {
		return 0, errors.Wrap(ErrInvalidCode, "unexpected end of data")
	}
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, errors.Wrapf(ErrInvalidCode, "bad varint at byte %d", r.pos)
	}
	r.pos += n
	return v, nil
}

func (r *reader) setAndFaction() (uint64, string, error) {
	set, err := r.next()
	if err != nil {
		return 0, "", err
	}
	factionID, err := r.next()
	if err != nil {
		return 0, "", err
	}
	faction, ok := factionsMap[factionID]
	if !ok {
		return 0, "", errors.Wrapf(ErrUnknownFaction, "id %d", factionID)
	}
	return set, faction, nil
}
