package cards

import "sync"

// Resolver resolves a card code to a Card. Implementations never fail: codes
// missing from the catalog resolve to Unknown(code).
type Resolver interface {
	Resolve(code string) Card
}

// Catalog is an immutable set of cards indexed by card code.
type Catalog struct {
	byCode  map[string]Card
	codes   []string
	skipped int
}

// NewCatalog indexes the given records once. Records without a card code are
// skipped; when a code appears twice the first record wins.
func NewCatalog(records []map[string]interface{}) *Catalog {
	c := &Catalog{
		byCode: make(map[string]Card, len(records)),
		codes:  make([]string, 0, len(records)),
	}

	for _, record := range records {
		card, err := FromRecord(record)
		if err != nil {
			c.skipped++
			continue
		}
		if _, exists := c.byCode[card.CardCode]; exists {
			continue
		}
		c.byCode[card.CardCode] = card
		c.codes = append(c.codes, card.CardCode)
	}

	return c
}

// Lookup returns the card for code and whether it was found.
func (c *Catalog) Lookup(code string) (Card, bool) {
	if c == nil {
		return Card{}, false
	}
	card, ok := c.byCode[code]
	return card, ok
}

// Resolve returns the catalog card or a code-only card when the code is unknown.
func (c *Catalog) Resolve(code string) Card {
	if card, ok := c.Lookup(code); ok {
		return card
	}
	return Unknown(code)
}

// Len returns the number of indexed cards.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.codes)
}

// Skipped returns the number of records dropped for lacking a card code.
func (c *Catalog) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}

// Codes returns the card codes in catalog order.
func (c *Catalog) Codes() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// FindRecord scans records for the given card code. It is the unindexed form
// of Catalog.Lookup and returns false when nothing matches.
func FindRecord(records []map[string]interface{}, code string) (map[string]interface{}, bool) {
	for _, record := range records {
		if stringField(record, "cardCode", "card_code", "CardCode") == code {
			return record, true
		}
	}
	return nil, false
}

// Store holds the current catalog and allows it to be replaced while readers
// are resolving cards.
type Store struct {
	mu      sync.RWMutex
	catalog *Catalog
}

// NewStore creates a store holding catalog (which may be nil).
func NewStore(catalog *Catalog) *Store {
	return &Store{catalog: catalog}
}

// Catalog returns the current catalog.
func (s *Store) Catalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Swap replaces the current catalog and returns the previous one.
func (s *Store) Swap(catalog *Catalog) *Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.catalog
	s.catalog = catalog
	return prev
}

// Resolve resolves code against the current catalog.
func (s *Store) Resolve(code string) Card {
	return s.Catalog().Resolve(code)
}
