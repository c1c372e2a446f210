package deckcode

import (
	"errors"
	"sort"
	"testing"
)

func sortDeck(d Deck) Deck {
	out := append(Deck(nil), d...)
	sort.Slice(out, func(i, j int) bool { return out[i].CardCode < out[j].CardCode })
	return out
}

func TestEncode_KnownBytes(t *testing.T) {
	tests := []struct {
		name string
		deck Deck
		want string
	}{
		{name: "empty", deck: Deck{}, want: "CEAAAAA"},
		{name: "single 3-of", deck: Deck{{CardCode: "01SI001", Count: 3}}, want: "CEAQCAIFAEAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.deck)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	deck := Deck{
		{CardCode: "01SI001", Count: 2},
		{CardCode: "02ZZ003", Count: 1},
		{CardCode: "01SI015", Count: 3},
		{CardCode: "01DE002", Count: 3},
		{CardCode: "03MT054", Count: 1},
		{CardCode: "01IO009", Count: 5},
	}

	// 02ZZ003 carries an unknown faction and must be rejected
	if _, err := Encode(deck); !errors.Is(err, ErrUnknownFaction) {
		t.Fatalf("expected ErrUnknownFaction, got %v", err)
	}

	deck[1].CardCode = "02BW003"
	code, err := Encode(deck)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode(%s) error = %v", code, err)
	}

	want := sortDeck(deck)
	got := sortDeck(decoded)
	if len(got) != len(want) {
		t.Fatalf("expected %d cards, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("card %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestEncode_OrderIndependent(t *testing.T) {
	a := Deck{
		{CardCode: "01SI001", Count: 2},
		{CardCode: "01SI002", Count: 2},
		{CardCode: "01FR010", Count: 1},
	}
	b := Deck{a[2], a[0], a[1]}

	codeA, err := Encode(a)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	codeB, err := Encode(b)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if codeA != codeB {
		t.Errorf("expected identical codes, got %s and %s", codeA, codeB)
	}
}

func TestEncode_VersionFollowsFactions(t *testing.T) {
	tests := []struct {
		code    string
		version byte
	}{
		{"01SI001", 1},
		{"04BW010", 2},
		{"04SH020", 3},
		{"05BC001", 4},
		{"06RU002", 5},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			code, err := Encode(Deck{{CardCode: tt.code, Count: 1}})
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			raw, err := encoding.DecodeString(code)
			if err != nil {
				t.Fatalf("base32 decode: %v", err)
			}
			if got := raw[0] & 0x0F; got != tt.version {
				t.Errorf("expected version %d, got %d", tt.version, got)
			}
			if got := raw[0] >> 4; got != Format {
				t.Errorf("expected format %d, got %d", Format, got)
			}
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name string
		deck Deck
		want error
	}{
		{"zero count", Deck{{CardCode: "01SI001", Count: 0}}, ErrInvalidCount},
		{"short code", Deck{{CardCode: "01SI", Count: 1}}, ErrInvalidCardCode},
		{"unknown set", Deck{{CardCode: "42SI001", Count: 1}}, ErrUnknownSet},
		{"bad set digits", Deck{{CardCode: "xxSI001", Count: 1}}, ErrInvalidCardCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.deck)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"not base32", "!!!", ErrInvalidCode},
		{"empty", "", ErrInvalidCode},
		// version byte 0x1F
		{"future version", encoding.EncodeToString([]byte{0x1F, 0, 0, 0}), ErrUnknownVersion},
		{"truncated", encoding.EncodeToString([]byte{0x11, 1}), ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.code)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseCardCode(t *testing.T) {
	cc, err := ParseCardCode("03MT054")
	if err != nil {
		t.Fatalf("ParseCardCode() error = %v", err)
	}
	if cc.Set != 3 || cc.Faction != "MT" || cc.Number != 54 {
		t.Errorf("unexpected parse result %+v", cc)
	}
	if cc.String() != "03MT054" {
		t.Errorf("expected 03MT054, got %s", cc.String())
	}
}
