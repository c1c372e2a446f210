// Package deck implements a multiset of cards with a derived deck code.
package deck

import (
	"fmt"
	"sort"

	"github.com/ramonehamilton/LoR-Companion/internal/lor/cards"
	"github.com/ramonehamilton/LoR-Companion/internal/lor/deckcode"
)

// Encoder turns card/count pairs into a deck code.
type Encoder func(pairs []deckcode.CardCodeAndCount) (string, error)

// DefaultEncoder is the Legends of Runeterra deck code encoder.
func DefaultEncoder(pairs []deckcode.CardCodeAndCount) (string, error) {
	return deckcode.Encode(deckcode.Deck(pairs))
}

// CanonicalCode re-encodes a deck code with DefaultEncoder. The game client
// orders equal-size groups differently, so codes it reports must pass through
// here before they are compared with stored deck codes.
func CanonicalCode(code string) (string, error) {
	decoded, err := deckcode.Decode(code)
	if err != nil {
		return "", err
	}
	counts := make(map[string]int, len(decoded))
	for _, entry := range decoded {
		counts[entry.CardCode] += int(entry.Count)
	}
	canonical, ok := FromCounts(counts, nil, 0, 0, DefaultEncoder).Code()
	if !ok {
		return "", fmt.Errorf("failed to re-encode deck code %q", code)
	}
	return canonical, nil
}

// Entry is one distinct card and its count.
type Entry struct {
	Card  cards.Card `json:"card"`
	Count int        `json:"count"`
}

// Deck is a multiset of cards. Every entry has Count >= 1; cards absent from
// the deck have count 0. The deck code is cached and recomputed on every
// change to the multiset. A Deck is not safe for concurrent mutation.
type Deck struct {
	entries map[string]*Entry
	encoder Encoder

	code    string
	hasCode bool

	Wins   int
	Losses int
}

// New groups cards by card code and computes the deck code once.
// A nil encoder leaves the deck without a code.
func New(cardList []cards.Card, wins, losses int, enc Encoder) *Deck {
	d := &Deck{
		entries: make(map[string]*Entry),
		encoder: enc,
		Wins:    wins,
		Losses:  losses,
	}

	for _, card := range cardList {
		d.add(card)
	}
	d.recompute()

	return d
}

// Empty returns a deck with no cards.
func Empty(enc Encoder) *Deck {
	return New(nil, 0, 0, enc)
}

// FromCounts builds a deck from card code counts, resolving every code.
// Counts below one are ignored.
func FromCounts(counts map[string]int, resolver cards.Resolver, wins, losses int, enc Encoder) *Deck {
	d := &Deck{
		entries: make(map[string]*Entry),
		encoder: enc,
		Wins:    wins,
		Losses:  losses,
	}

	for code, count := range counts {
		if count < 1 {
			continue
		}
		d.entries[code] = &Entry{Card: resolve(resolver, code), Count: count}
	}
	d.recompute()

	return d
}

func resolve(resolver cards.Resolver, code string) cards.Card {
	if resolver == nil {
		return cards.Unknown(code)
	}
	return resolver.Resolve(code)
}

func (d *Deck) add(card cards.Card) {
	if e, ok := d.entries[card.CardCode]; ok {
		e.Count++
		return
	}
	d.entries[card.CardCode] = &Entry{Card: card, Count: 1}
}

// Add puts one copy of card into the deck.
func (d *Deck) Add(card cards.Card) {
	d.add(card)
	d.recompute()
}

// Remove takes one copy of the card out of the deck. It returns false when
// the card was not present.
func (d *Deck) Remove(code string) bool {
	e, ok := d.entries[code]
	if !ok {
		return false
	}
	e.Count--
	if e.Count <= 0 {
		delete(d.entries, code)
	}
	d.recompute()
	return true
}

// recompute refreshes the cached deck code. Encoder failures leave the code absent.
func (d *Deck) recompute() {
	d.code, d.hasCode = "", false
	if d.encoder == nil {
		return
	}
	code, err := d.encoder(d.Pairs())
	if err != nil {
		return
	}
	d.code, d.hasCode = code, true
}

// Code returns the deck code and whether one is available.
func (d *Deck) Code() (string, bool) {
	return d.code, d.hasCode
}

// Count returns how many copies of code the deck holds.
func (d *Deck) Count(code string) int {
	if e, ok := d.entries[code]; ok {
		return e.Count
	}
	return 0
}

// Contains reports whether the deck holds at least one copy of code.
func (d *Deck) Contains(code string) bool {
	_, ok := d.entries[code]
	return ok
}

// Len returns the number of distinct cards.
func (d *Deck) Len() int {
	return len(d.entries)
}

// Size returns the total number of cards.
func (d *Deck) Size() int {
	total := 0
	for _, e := range d.entries {
		total += e.Count
	}
	return total
}

// Entries returns a copy of the entries sorted by card code.
func (d *Deck) Entries() []Entry {
	out := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Card.CardCode < out[j].Card.CardCode
	})
	return out
}

// Pairs returns the card code/count pairs sorted by card code.
func (d *Deck) Pairs() []deckcode.CardCodeAndCount {
	entries := d.Entries()
	pairs := make([]deckcode.CardCodeAndCount, len(entries))
	for i, e := range entries {
		pairs[i] = deckcode.CardCodeAndCount{CardCode: e.Card.CardCode, Count: uint64(e.Count)}
	}
	return pairs
}

// Clone returns an independent copy of the deck.
func (d *Deck) Clone() *Deck {
	c := &Deck{
		entries: make(map[string]*Entry, len(d.entries)),
		encoder: d.encoder,
		code:    d.code,
		hasCode: d.hasCode,
		Wins:    d.Wins,
		Losses:  d.Losses,
	}
	for code, e := range d.entries {
		entry := *e
		c.entries[code] = &entry
	}
	return c
}

// RecordResult adds a win or a loss to the deck's record.
func (d *Deck) RecordResult(won bool) {
	if won {
		d.Wins++
	} else {
		d.Losses++
	}
}

// Equal reports whether both decks have a code and the codes match.
// Match records are not compared. Two decks without a code are never equal,
// unlike a plain comparison of the optional codes, which would treat two
// absent codes as a match.
func (d *Deck) Equal(other *Deck) bool {
	if d == nil || other == nil {
		return false
	}
	return d.hasCode && other.hasCode && d.code == other.code
}

// Regions returns up to two regions, most frequent first. Each distinct card
// counts once per region it belongs to; ties are broken by region name.
func (d *Deck) Regions() []string {
	counts := make(map[string]int)
	for _, e := range d.entries {
		for _, region := range e.Card.Regions {
			counts[region]++
		}
	}

	regions := make([]string, 0, len(counts))
	for region := range counts {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool {
		if counts[regions[i]] != counts[regions[j]] {
			return counts[regions[i]] > counts[regions[j]]
		}
		return regions[i] < regions[j]
	})

	if len(regions) > 2 {
		regions = regions[:2]
	}
	return regions
}

// Champions returns the distinct champion cards sorted by card code.
func (d *Deck) Champions() []cards.Card {
	var champions []cards.Card
	for _, e := range d.Entries() {
		if e.Card.IsChampion() {
			champions = append(champions, e.Card)
		}
	}
	return champions
}
