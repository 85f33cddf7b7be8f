package format

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// DateStyle selects how much of a date is spelled out.
type DateStyle int

const (
	DateNumeric DateStyle = iota
	DateMedium
	DateLong
)

// DateOptions tunes FormatDate. A nil *DateOptions renders a numeric date in
// the time's own location.
type DateOptions struct {
	Style    DateStyle
	WithTime bool
	Location *time.Location
}

type dateLocale struct {
	numeric func(t time.Time) string
	medium  func(t time.Time) string
	long    func(t time.Time) string
	clock   func(t time.Time) string
	joiner  string
}

var dateTags = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.German,
	language.French,
	language.Japanese,
}

var dateMatcher = language.NewMatcher(dateTags)

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

func clock24(t time.Time) string { return t.Format("15:04:05") }

var dateLocales = []dateLocale{
	{ // en-US
		numeric: func(t time.Time) string { return t.Format("1/2/2006") },
		medium:  func(t time.Time) string { return t.Format("Jan 2, 2006") },
		long:    func(t time.Time) string { return t.Format("January 2, 2006") },
		clock:   func(t time.Time) string { return t.Format("3:04:05 PM") },
		joiner:  ", ",
	},
	{ // en-GB
		numeric: func(t time.Time) string { return t.Format("02/01/2006") },
		medium:  func(t time.Time) string { return t.Format("2 Jan 2006") },
		long:    func(t time.Time) string { return t.Format("2 January 2006") },
		clock:   clock24,
		joiner:  ", ",
	},
	{ // de
		numeric: func(t time.Time) string { return t.Format("2.1.2006") },
		medium:  func(t time.Time) string { return t.Format("02.01.2006") },
		long: func(t time.Time) string {
			return fmt.Sprintf("%d. %s %d", t.Day(), germanMonths[t.Month()-1], t.Year())
		},
		clock:  clock24,
		joiner: ", ",
	},
	{ // fr
		numeric: func(t time.Time) string { return t.Format("02/01/2006") },
		medium: func(t time.Time) string {
			return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
		},
		long: func(t time.Time) string {
			return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
		},
		clock:  clock24,
		joiner: " ",
	},
	{ // ja
		numeric: func(t time.Time) string { return t.Format("2006/1/2") },
		medium:  func(t time.Time) string { return t.Format("2006/01/02") },
		long: func(t time.Time) string {
			return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
		},
		clock:  clock24,
		joiner: " ",
	},
}

func matchDateLocale(locale string) dateLocale {
	if locale == "" {
		locale = DefaultLocale
	}
	_, idx, _ := dateMatcher.Match(language.Make(locale))
	return dateLocales[idx]
}

// FormatDate renders t following the conventions of locale. Unsupported
// locales fall back to en-US.
func FormatDate(t time.Time, locale string, opts *DateOptions) string {
	if opts == nil {
		opts = &DateOptions{}
	}
	if opts.Location != nil {
		t = t.In(opts.Location)
	}

	l := matchDateLocale(locale)
	var out string
	switch opts.Style {
	case DateMedium:
		out = l.medium(t)
	case DateLong:
		out = l.long(t)
	default:
		out = l.numeric(t)
	}
	if opts.WithTime {
		out += l.joiner + l.clock(t)
	}
	return out
}
