package core

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedPrice is the outcome of parsing a raw price input. Exactly one of
// Amount (ModeValue) or Formula (ModeFormula) carries the result.
type ParsedPrice struct {
	Mode    Mode
	Amount  float64
	Formula string
}

type priceToken struct {
	negative bool
	literal  string
}

var (
	numberSegmentRE = regexp.MustCompile(`^\d+(?:\.\d{0,2})?$`)
	allowedCharsRE  = regexp.MustCompile(`^[0-9.+-]+$`)
	whitespaceRE    = regexp.MustCompile(`\s+`)
)

// ParsePrice parses raw user input into either a numeric amount or a
// canonical formula. Input is a signed sum of non-negative decimal literals
// (at most 2 fractional digits) joined by + or -; decimal commas are
// accepted. A leading "=" switches to formula mode: the remainder is
// re-serialized into canonical "=±num±num…" form without being evaluated.
func ParsePrice(raw string) (ParsedPrice, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ParsedPrice{}, ErrInvalidPrice
	}

	if strings.HasPrefix(trimmed, "=") {
		serialized, err := serializeExpression(trimmed[1:])
		if err != nil {
			return ParsedPrice{}, err
		}
		return ParsedPrice{Mode: ModeFormula, Formula: "=" + serialized}, nil
	}

	amount, err := EvaluateExpression(trimmed)
	if err != nil {
		return ParsedPrice{}, err
	}
	return ParsedPrice{Mode: ModeValue, Amount: amount}, nil
}

// EvaluateExpression computes the signed sum of a linear expression,
// rounded to two decimals.
func EvaluateExpression(expr string) (float64, error) {
	tokens, err := tokenizeExpression(expr)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok.literal, 64)
		if err != nil {
			return 0, ErrInvalidPrice
		}
		if tok.negative {
			total -= v
		} else {
			total += v
		}
	}
	return Round2(total), nil
}

// serializeExpression re-emits the expression in canonical form: no
// whitespace, dots for decimals, explicit operators between literals and a
// leading "-" only when the first literal is negative.
func serializeExpression(expr string) (string, error) {
	tokens, err := tokenizeExpression(expr)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, tok := range tokens {
		switch {
		case i == 0 && tok.negative:
			b.WriteByte('-')
		case i > 0 && tok.negative:
			b.WriteByte('-')
		case i > 0:
			b.WriteByte('+')
		}
		b.WriteString(tok.literal)
	}
	return b.String(), nil
}

func tokenizeExpression(expr string) ([]priceToken, error) {
	normalized := whitespaceRE.ReplaceAllString(strings.ReplaceAll(expr, ",", "."), "")
	if normalized == "" || !allowedCharsRE.MatchString(normalized) {
		return nil, ErrInvalidPrice
	}

	var (
		tokens   []priceToken
		current  strings.Builder
		negative bool
	)
	flush := func() error {
		lit := current.String()
		if !numberSegmentRE.MatchString(lit) {
			return ErrInvalidPrice
		}
		tokens = append(tokens, priceToken{negative: negative, literal: lit})
		current.Reset()
		return nil
	}

	for i := 0; i < len(normalized); i++ {
		ch := normalized[i]
		if ch == '+' || ch == '-' {
			if current.Len() == 0 {
				// A sign is only allowed at the very start of the expression.
				if i == 0 {
					negative = ch == '-'
					continue
				}
				return nil, ErrInvalidPrice
			}
			if err := flush(); err != nil {
				return nil, err
			}
			negative = ch == '-'
			continue
		}
		if ch == '.' && strings.Contains(current.String(), ".") {
			return nil, ErrInvalidPrice
		}
		current.WriteByte(ch)
	}

	if current.Len() == 0 {
		return nil, ErrInvalidPrice
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return tokens, nil
}
