// Package cards models Legends of Runeterra cards and the in-memory catalog
// used to resolve card codes observed by the game client.
package cards

import (
	"errors"
	"fmt"
	"strconv"
)

// DefaultSet is the set number reported for card codes whose first two
// characters are not a number.
const DefaultSet = 0

// RarityChampion is the rarity shared by every champion card.
const RarityChampion = "Champion"

// ErrMissingCardCode is returned when a raw record has no card code.
var ErrMissingCardCode = errors.New("card record has no card code")

// Card represents the static metadata of a printed card.
// Numeric attributes are pointers so that "no cost" and "cost 0" stay distinct.
// A card's identity is its code: see Equal. Maps of cards key by CardCode.
type Card struct {
	CardCode string `json:"cardCode"`
	Set      int    `json:"setNumber"`

	Name      string `json:"name,omitempty"`
	Cost      *int   `json:"cost,omitempty"`
	Attack    *int   `json:"attack,omitempty"`
	Health    *int   `json:"health,omitempty"`
	Rarity    string `json:"rarity,omitempty"`
	RarityRef string `json:"rarityRef,omitempty"`

	Regions    []string `json:"regions,omitempty"`
	RegionRefs []string `json:"regionRefs,omitempty"`

	Type      string   `json:"type,omitempty"`
	Supertype string   `json:"supertype,omitempty"`
	Subtypes  []string `json:"subtypes,omitempty"`

	Keywords    []string `json:"keywords,omitempty"`
	KeywordRefs []string `json:"keywordRefs,omitempty"`

	Description           string `json:"description,omitempty"`
	DescriptionRaw        string `json:"descriptionRaw,omitempty"`
	LevelupDescription    string `json:"levelupDescription,omitempty"`
	LevelupDescriptionRaw string `json:"levelupDescriptionRaw,omitempty"`
	FlavorText            string `json:"flavorText,omitempty"`
	ArtistName            string `json:"artistName,omitempty"`

	SpellSpeed    string `json:"spellSpeed,omitempty"`
	SpellSpeedRef string `json:"spellSpeedRef,omitempty"`

	Collectible *bool    `json:"collectible,omitempty"`
	SetName     string   `json:"set,omitempty"`
	Formats     []string `json:"formats,omitempty"`
	FormatRefs  []string `json:"formatRefs,omitempty"`

	AssociatedCards    []string `json:"associatedCards,omitempty"`
	AssociatedCardRefs []string `json:"associatedCardRefs,omitempty"`
	Assets             []Asset  `json:"assets,omitempty"`
}

// Asset holds the image locations of a card.
type Asset struct {
	GameAbsolutePath string `json:"gameAbsolutePath,omitempty"`
	FullAbsolutePath string `json:"fullAbsolutePath,omitempty"`
}

// SetNumber derives the set number from the first two characters of a card code.
// Malformed codes yield DefaultSet.
func SetNumber(code string) int {
	if len(code) < 2 {
		return DefaultSet
	}
	n, err := strconv.Atoi(code[:2])
	if err != nil || n < 0 {
		return DefaultSet
	}
	return n
}

// Unknown returns a card carrying only its code. It is used for codes absent
// from the catalog so that they can still be tracked.
func Unknown(code string) Card {
	return Card{CardCode: code, Set: SetNumber(code)}
}

// Equal reports whether both cards have the same code. Metadata is ignored,
// so a code-only Unknown card equals its catalog entry.
func (c Card) Equal(other Card) bool {
	return c.CardCode == other.CardCode
}

// IsChampion reports whether the card has champion rarity.
func (c Card) IsChampion() bool {
	return c.Rarity == RarityChampion
}

// IsKnown reports whether the card carries catalog metadata beyond its code.
func (c Card) IsKnown() bool {
	return c.Name != "" || c.Rarity != "" || len(c.Regions) > 0
}

// String formats the card as "(cost) name: description".
func (c Card) String() string {
	cost := 0
	if c.Cost != nil {
		cost = *c.Cost
	}
	return fmt.Sprintf("(%d) %s: %s", cost, c.Name, c.Description)
}

// FromRecord builds a Card from one raw catalog record. Both the Data Dragon
// camelCase keys and snake_case keys are accepted. Every field but the card
// code is optional.
func FromRecord(record map[string]interface{}) (Card, error) {
	code := stringField(record, "cardCode", "card_code", "CardCode")
	if code == "" {
		return Card{}, ErrMissingCardCode
	}

	card := Card{
		CardCode: code,
		Set:      SetNumber(code),

		Name:      stringField(record, "name"),
		Cost:      intField(record, "cost"),
		Attack:    intField(record, "attack"),
		Health:    intField(record, "health"),
		Rarity:    stringField(record, "rarity"),
		RarityRef: stringField(record, "rarityRef", "rarity_ref"),

		Regions:    stringsField(record, "regions"),
		RegionRefs: stringsField(record, "regionRefs", "region_refs"),

		Type:      stringField(record, "type", "card_type"),
		Supertype: stringField(record, "supertype"),
		Subtypes:  stringsField(record, "subtypes"),

		Keywords:    stringsField(record, "keywords"),
		KeywordRefs: stringsField(record, "keywordRefs", "keyword_refs"),

		Description:           stringField(record, "description"),
		DescriptionRaw:        stringField(record, "descriptionRaw", "description_raw"),
		LevelupDescription:    stringField(record, "levelupDescription", "levelup_description"),
		LevelupDescriptionRaw: stringField(record, "levelupDescriptionRaw", "levelup_description_raw"),
		FlavorText:            stringField(record, "flavorText", "flavor_text"),
		ArtistName:            stringField(record, "artistName", "artist_name"),

		SpellSpeed:    stringField(record, "spellSpeed", "spell_speed"),
		SpellSpeedRef: stringField(record, "spellSpeedRef", "spell_speed_ref"),

		SetName:    stringField(record, "set"),
		Formats:    stringsField(record, "formats"),
		FormatRefs: stringsField(record, "formatRefs", "format_refs"),

		AssociatedCards:    stringsField(record, "associatedCards", "associated_cards"),
		AssociatedCardRefs: stringsField(record, "associatedCardRefs", "associated_card_refs"),
	}

	if collectible, ok := record["collectible"].(bool); ok {
		card.Collectible = &collectible
	}

	if assets, ok := record["assets"].([]interface{}); ok {
		for _, a := range assets {
			assetMap, ok := a.(map[string]interface{})
			if !ok {
				continue
			}
			card.Assets = append(card.Assets, Asset{
				GameAbsolutePath: stringField(assetMap, "gameAbsolutePath", "game_absolute_path"),
				FullAbsolutePath: stringField(assetMap, "fullAbsolutePath", "full_absolute_path"),
			})
		}
	}

	return card, nil
}

// stringField returns the first string value found under any of the keys.
func stringField(record map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok {
			return s
		}
	}
	return ""
}

// intField returns the first numeric value found under any of the keys, or nil.
func intField(record map[string]interface{}, keys ...string) *int {
	for _, key := range keys {
		switch v := record[key].(type) {
		case float64:
			n := int(v)
			return &n
		case int:
			n := v
			return &n
		}
	}
	return nil
}

// stringsField collects the string elements of the first array found under any of the keys.
func stringsField(record map[string]interface{}, keys ...string) []string {
	for _, key := range keys {
		raw, ok := record[key].([]interface{})
		if !ok {
			continue
		}
		values := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
		return values
	}
	return nil
}
