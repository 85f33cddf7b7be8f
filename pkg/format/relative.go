package format

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/number"
)

type timeUnit int

const (
	unitSecond timeUnit = iota
	unitMinute
	unitHour
	unitDay
	unitMonth
	unitYear
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerMonth  = 2_592_000
	secondsPerYear   = 31_536_000
)

// relativePhrases holds the "numeric: auto" wording of one language. Index
// by timeUnit.
type relativePhrases struct {
	now       string
	lastOne   [6]string
	singular  [6]string
	plural    [6]string
	pastFmt   func(amount, unit string) string
	futureFmt func(amount, unit string) string
}

var relativeTags = []language.Tag{language.English, language.German}

var relativeMatcher = language.NewMatcher(relativeTags)

var relativeLocales = []relativePhrases{
	{
		now:       "now",
		lastOne:   [6]string{"", "", "", "yesterday", "last month", "last year"},
		singular:  [6]string{"second", "minute", "hour", "day", "month", "year"},
		plural:    [6]string{"seconds", "minutes", "hours", "days", "months", "years"},
		pastFmt:   func(amount, unit string) string { return amount + " " + unit + " ago" },
		futureFmt: func(amount, unit string) string { return "in " + amount + " " + unit },
	},
	{
		now:       "jetzt",
		lastOne:   [6]string{"", "", "", "gestern", "letzten Monat", "letztes Jahr"},
		singular:  [6]string{"Sekunde", "Minute", "Stunde", "Tag", "Monat", "Jahr"},
		plural:    [6]string{"Sekunden", "Minuten", "Stunden", "Tagen", "Monaten", "Jahren"},
		pastFmt:   func(amount, unit string) string { return "vor " + amount + " " + unit },
		futureFmt: func(amount, unit string) string { return "in " + amount + " " + unit },
	},
}

// RelativeTime describes t relative to now using the coarsest unit that
// fits: seconds, minutes, hours, days, months (30 days) or years (365 days).
// Instants in the future are always expressed in seconds.
func RelativeTime(t, now time.Time, locale string) string {
	diff := int64(math.Floor(now.Sub(t).Seconds()))

	switch {
	case diff < secondsPerMinute:
		return relativePhrase(-diff, unitSecond, locale)
	case diff < secondsPerHour:
		return relativePhrase(-(diff / secondsPerMinute), unitMinute, locale)
	case diff < secondsPerDay:
		return relativePhrase(-(diff / secondsPerHour), unitHour, locale)
	case diff < secondsPerMonth:
		return relativePhrase(-(diff / secondsPerDay), unitDay, locale)
	case diff < secondsPerYear:
		return relativePhrase(-(diff / secondsPerMonth), unitMonth, locale)
	default:
		return relativePhrase(-(diff / secondsPerYear), unitYear, locale)
	}
}

// relativePhrase formats value units, negative meaning the past.
func relativePhrase(value int64, unit timeUnit, locale string) string {
	if locale == "" {
		locale = DefaultLocale
	}
	_, idx, _ := relativeMatcher.Match(language.Make(locale))
	phrases := relativeLocales[idx]

	if value == 0 && unit == unitSecond {
		return phrases.now
	}
	if value == -1 && phrases.lastOne[unit] != "" {
		return phrases.lastOne[unit]
	}

	abs := value
	if abs < 0 {
		abs = -abs
	}
	name := phrases.plural[unit]
	if abs == 1 {
		name = phrases.singular[unit]
	}
	amount := printer(locale).Sprint(number.Decimal(abs))

	if value < 0 {
		return phrases.pastFmt(amount, name)
	}
	return phrases.futureFmt(amount, name)
}
