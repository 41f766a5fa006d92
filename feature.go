package realty

import (
	"strings"
	"unicode"
)

// TokenKind classifies a normalized info-panel token.
type TokenKind int

// Token kinds. Anything that is not a recognised label is a value.
const (
	TokenValue TokenKind = iota
	TokenBeds
	TokenBaths
	TokenSqFt
)

// Token is one normalized text token from a listing's info panel.
type Token struct {
	Text string
	Kind TokenKind
}

// Features holds the raw bed, bath and square footage values of a listing.
type Features struct {
	Beds  *string
	Baths *string
	SqFt  *string
}

// NormalizeToken removes all whitespace and commas from a raw token.
func NormalizeToken(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' {
			return -1
		}
		return r
	}, raw)
}

// ClassifyToken returns the kind of a normalized token.
func ClassifyToken(text string) TokenKind {
	lower := strings.ToLower(text)
	switch {
	case lower == "beds":
		return TokenBeds
	case strings.Contains(lower, "bath"): // "Baths", "1/2Baths"
		return TokenBaths
	case lower == "sq.ft.":
		return TokenSqFt
	default:
		return TokenValue
	}
}

// ClassifyTokens normalizes and classifies raw tokens in order.
// Tokens that are empty after normalization are dropped.
func ClassifyTokens(raw []string) []Token {
	tokens := make([]Token, 0, len(raw))
	for _, r := range raw {
		text := NormalizeToken(r)
		if text == "" {
			continue
		}
		tokens = append(tokens, Token{Text: text, Kind: ClassifyToken(text)})
	}
	return tokens
}

// ParseFeatures pairs each label with the value token immediately before it.
//
// Info panels are laid out value-then-label, but listings omit and reorder
// pairs freely, so this is a tolerant heuristic rather than a grammar: one
// left-to-right pass, no backtracking, first match per category wins. A
// label with no preceding value token (e.g. at position 0) is ignored. When
// several values precede a label only the nearest one is used.
func ParseFeatures(raw []string) Features {
	var f Features
	tokens := ClassifyTokens(raw)
	for i := 1; i < len(tokens); i++ {
		prev := tokens[i-1]
		if prev.Kind != TokenValue {
			continue
		}
		value := prev.Text
		switch tokens[i].Kind {
		case TokenBeds:
			if f.Beds == nil {
				f.Beds = &value
			}
		case TokenBaths:
			if f.Baths == nil {
				f.Baths = &value
			}
		case TokenSqFt:
			if f.SqFt == nil {
				f.SqFt = &value
			}
		}
	}
	return f
}
