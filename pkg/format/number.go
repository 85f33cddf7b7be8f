// Package format holds the locale-aware presentation helpers shared by the
// web pages, the JSON API and the splitrailctl client.
package format

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used whenever a caller passes an empty locale tag.
const DefaultLocale = "en-US"

// NumberOptions tunes FormatNumber. A nil *NumberOptions applies the library
// defaults (grouping, at most three fraction digits).
type NumberOptions struct {
	MinFractionDigits int
	MaxFractionDigits int
	Percent           bool
}

// BigInt carries integers that do not fit a float64 without loss. On the wire
// it is encoded as {"$bigint":"<decimal>"}.
type BigInt struct {
	Value *big.Int
}

// NewBigInt parses a decimal string into a BigInt.
func NewBigInt(s string) (BigInt, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return BigInt{}, fmt.Errorf("invalid big integer %q", s)
	}
	return BigInt{Value: v}, nil
}

func (b BigInt) MarshalJSON() ([]byte, error) {
	if b.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]string{"$bigint": b.Value.String()})
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	var raw struct {
		BigInt string `json:"$bigint"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.BigInt == "" {
		b.Value = nil
		return nil
	}
	parsed, err := NewBigInt(raw.BigInt)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func printer(locale string) *message.Printer {
	if locale == "" {
		locale = DefaultLocale
	}
	return message.NewPrinter(language.Make(locale))
}

// FormatNumber renders n with the grouping and decimal conventions of locale.
// Zero-valued fraction options keep the defaults.
func FormatNumber(n float64, locale string, opts *NumberOptions) string {
	p := printer(locale)
	if opts == nil {
		return p.Sprint(number.Decimal(n))
	}

	var numOpts []number.Option
	if opts.MinFractionDigits > 0 {
		numOpts = append(numOpts, number.MinFractionDigits(opts.MinFractionDigits))
	}
	if opts.MaxFractionDigits > 0 || opts.MinFractionDigits > 0 {
		maxDigits := opts.MaxFractionDigits
		if maxDigits < opts.MinFractionDigits {
			maxDigits = opts.MinFractionDigits
		}
		numOpts = append(numOpts, number.MaxFractionDigits(maxDigits))
	}

	if opts.Percent {
		return p.Sprint(number.Percent(n, numOpts...))
	}
	return p.Sprint(number.Decimal(n, numOpts...))
}

func formatFixed(p *message.Printer, n float64, digits int) string {
	return p.Sprint(number.Decimal(n,
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits),
	))
}

// symbolAfterAmount lists languages that write the currency symbol after the
// amount, separated by a no-break space.
var symbolAfterAmount = map[string]bool{
	"de": true, "fr": true, "es": true, "it": true, "pl": true,
	"ru": true, "sv": true, "fi": true, "cs": true, "pt": true,
}

// FormatCurrency renders amount in the given ISO 4217 currency. Empty
// arguments fall back to USD and DefaultLocale; an unknown code is printed
// verbatim in place of the symbol.
func FormatCurrency(amount float64, code, locale string) string {
	if code == "" {
		code = "USD"
	}
	if locale == "" {
		locale = DefaultLocale
	}

	p := printer(locale)
	negative := amount < 0
	if negative {
		amount = -amount
	}

	var symbol, value string
	unit, err := currency.ParseISO(code)
	if err != nil {
		symbol = strings.ToUpper(code)
		value = formatFixed(p, amount, 2)
	} else {
		scale, _ := currency.Standard.Rounding(unit)
		symbol = p.Sprint(currency.Symbol(unit))
		value = formatFixed(p, amount, scale)
	}

	base, _ := language.Make(locale).Base()
	var out string
	if symbolAfterAmount[base.String()] {
		out = value + "\u00a0" + symbol
	} else {
		out = symbol + value
	}
	if negative {
		return "-" + out
	}
	return out
}

// FormatLargeNumber abbreviates counts for dashboards: 1.2B, 3.4M, 5.6k.
// Plain numbers keep one decimal; BigInt values use integer division. Any
// other input yields the empty string.
func FormatLargeNumber(v any) string {
	switch n := v.(type) {
	case float64:
		return abbreviateFloat(n)
	case float32:
		return abbreviateFloat(float64(n))
	case int:
		return abbreviateInt(int64(n))
	case int32:
		return abbreviateInt(int64(n))
	case int64:
		return abbreviateInt(n)
	case uint:
		return abbreviateFloatOrExact(float64(n), strconv.FormatUint(uint64(n), 10))
	case uint32:
		return abbreviateInt(int64(n))
	case uint64:
		return abbreviateFloatOrExact(float64(n), strconv.FormatUint(n, 10))
	case BigInt:
		return abbreviateBig(n.Value)
	case *BigInt:
		if n == nil {
			return ""
		}
		return abbreviateBig(n.Value)
	case *big.Int:
		return abbreviateBig(n)
	}
	return ""
}

func abbreviateFloat(n float64) string {
	return abbreviateFloatOrExact(n, strconv.FormatFloat(n, 'f', -1, 64))
}

func abbreviateInt(n int64) string {
	return abbreviateFloatOrExact(float64(n), strconv.FormatInt(n, 10))
}

func abbreviateFloatOrExact(n float64, exact string) string {
	switch {
	case n >= 1e9:
		return strconv.FormatFloat(n/1e9, 'f', 1, 64) + "B"
	case n >= 1e6:
		return strconv.FormatFloat(n/1e6, 'f', 1, 64) + "M"
	case n >= 1e3:
		return strconv.FormatFloat(n/1e3, 'f', 1, 64) + "k"
	}
	return exact
}

var (
	bigBillion  = big.NewInt(1_000_000_000)
	bigMillion  = big.NewInt(1_000_000)
	bigThousand = big.NewInt(1_000)
)

func abbreviateBig(n *big.Int) string {
	if n == nil {
		return ""
	}
	tiers := []struct {
		div    *big.Int
		suffix string
	}{
		{bigBillion, "B"},
		{bigMillion, "M"},
		{bigThousand, "k"},
	}
	for _, tier := range tiers {
		if n.Cmp(tier.div) >= 0 {
			return new(big.Int).Quo(n, tier.div).String() + tier.suffix
		}
	}
	return n.String()
}
