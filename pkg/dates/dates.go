// Package dates normalizes free-form dates found in scanned documents.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// Layout is the canonical output format, YYYY/MM/DD
const Layout = "2006/01/02"

// ParseError reports text that does not contain a recognizable date
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no date found in %q: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNoCandidate = errors.New("no candidate date expression")

// Normalizer parses dates leniently and formats them canonically
type Normalizer struct {
	// Reference supplies the components missing from the text: the year
	// for "March 3", the day for "March 2023", month and day for "1987".
	// Zero means the current date.
	Reference time.Time
	// Location used for parsing. Nil means UTC.
	Location *time.Location
}

// Normalize reparses text into YYYY/MM/DD. When no date can be found the
// original text is returned unchanged together with a *ParseError.
func (n Normalizer) Normalize(text string) (string, error) {
	t, err := n.Parse(text)
	if err != nil {
		return text, err
	}
	return t.Format(Layout), nil
}

// Parse finds a date in text, ignoring the words around it. Candidates are
// tried from most to least complete:
//
// - a numeric date with day, month and year ("2023-03-03", "3/3/2023")
// - a month name with an optional adjacent day and nearby year ("3 March 2023", "March 1987")
// - a numeric year and month, or month and day ("2023-03", "3/3")
// - a compact date ("20230303")
// - a lone four digit year ("1987")
//
// Components the text lacks are taken from the reference date.
func (n Normalizer) Parse(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if !hasDigit(s) {
		return time.Time{}, &ParseError{Text: text, Err: errNoCandidate}
	}

	toks := tokenize(s)
	steps := []func([]token) (time.Time, bool){
		n.fullNumeric,
		n.monthName,
		n.partialNumeric,
		n.compact,
		n.yearOnly,
	}
	for _, step := range steps {
		if t, ok := step(toks); ok {
			return t, nil
		}
	}

	// Anything else dateparse understands as a whole, as long as it names a year
	if hasYear(s) {
		t, err := safeParse(s, n.location())
		if err == nil {
			return t, nil
		}
		return time.Time{}, &ParseError{Text: text, Err: err}
	}
	return time.Time{}, &ParseError{Text: text, Err: errNoCandidate}
}

// token is one word of the text, stripped of surrounding punctuation.
// clause is incremented by every comma or semicolon, so a day is never
// taken from across one ("No. 3, March").
type token struct {
	text   string
	clause int
}

func tokenize(s string) []token {
	var toks []token
	clause := 0
	for _, f := range strings.Fields(s) {
		text := strings.Trim(f, ",;:.()[]'\"")
		if text != "" {
			toks = append(toks, token{text: text, clause: clause})
		}
		if strings.ContainsAny(f, ",;") {
			clause++
		}
	}
	return toks
}

func (n Normalizer) fullNumeric(toks []token) (time.Time, bool) {
	for _, tok := range toks {
		groups := splitNumeric(tok.text)
		if len(groups) < 3 || !startsWithDigit(groups[0]) || !startsWithDigit(groups[1]) || !startsWithDigit(groups[2]) {
			continue
		}
		if t, err := safeParse(tok.text, n.location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n Normalizer) monthName(toks []token) (time.Time, bool) {
	for i, tok := range toks {
		month, ok := months[strings.ToLower(tok.text)]
		if !ok {
			continue
		}

		year, ok := nearestYear(toks, i)
		if !ok {
			year = n.reference().Year()
		}
		day, ok := adjacentDay(toks, i, year, month)
		if !ok {
			day = n.referenceDay(year, month)
		}
		return time.Date(year, month, day, 0, 0, 0, 0, n.location()), true
	}
	return time.Time{}, false
}

func (n Normalizer) partialNumeric(toks []token) (time.Time, bool) {
	for _, tok := range toks {
		groups := strings.FieldsFunc(tok.text, func(r rune) bool { return r == '-' || r == '/' })
		if len(groups) != 2 || !allDigits(groups[0]) || !allDigits(groups[1]) {
			continue
		}
		a, _ := strconv.Atoi(groups[0])
		b, _ := strconv.Atoi(groups[1])

		switch {
		case len(groups[0]) == 4 && validMonth(b):
			return time.Date(a, time.Month(b), n.referenceDay(a, time.Month(b)), 0, 0, 0, 0, n.location()), true
		case len(groups[1]) == 4 && validMonth(a):
			return time.Date(b, time.Month(a), n.referenceDay(b, time.Month(a)), 0, 0, 0, 0, n.location()), true
		case len(groups[0]) <= 2 && len(groups[1]) <= 2 && strings.Contains(tok.text, "/"):
			year := n.reference().Year()
			// Month first, unless only the day first reading is valid
			if validMonth(a) && validDay(year, time.Month(a), b) {
				return time.Date(year, time.Month(a), b, 0, 0, 0, 0, n.location()), true
			}
			if validMonth(b) && validDay(year, time.Month(b), a) {
				return time.Date(year, time.Month(b), a, 0, 0, 0, 0, n.location()), true
			}
		}
	}
	return time.Time{}, false
}

func (n Normalizer) compact(toks []token) (time.Time, bool) {
	for _, tok := range toks {
		if len(tok.text) != 8 || !allDigits(tok.text) {
			continue
		}
		if t, err := safeParse(tok.text, n.location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n Normalizer) yearOnly(toks []token) (time.Time, bool) {
	for _, tok := range toks {
		if year, ok := parseYear(tok.text); ok {
			ref := n.reference()
			return time.Date(year, ref.Month(), n.referenceDay(year, ref.Month()), 0, 0, 0, 0, n.location()), true
		}
	}
	return time.Time{}, false
}

// referenceDay is the reference day, clamped to the length of the month
func (n Normalizer) referenceDay(year int, month time.Month) int {
	return min(n.reference().Day(), daysIn(year, month))
}

// safeParse guards against panics dateparse raises on some malformed input
func safeParse(s string, loc *time.Location) (t time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse %q: %v", s, r)
		}
	}()
	return dateparse.ParseIn(s, loc)
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// nearestYear returns the four digit year closest to toks[i], preferring
// the one after it on a tie
func nearestYear(toks []token, i int) (int, bool) {
	for d := 1; d < len(toks); d++ {
		for _, j := range []int{i + d, i - d} {
			if j < 0 || j >= len(toks) {
				continue
			}
			if year, ok := parseYear(toks[j].text); ok {
				return year, true
			}
		}
	}
	return 0, false
}

// adjacentDay returns the day written right before or after the month name
// at toks[i], in the same clause. "3rd of March" is accepted.
func adjacentDay(toks []token, i, year int, month time.Month) (int, bool) {
	candidates := []int{i + 1, i - 1}
	if i >= 2 && strings.EqualFold(toks[i-1].text, "of") {
		candidates = append(candidates, i-2)
	}
	for _, j := range candidates {
		if j < 0 || j >= len(toks) || toks[j].clause != toks[i].clause {
			continue
		}
		text := strings.ToLower(toks[j].text)
		for _, suffix := range []string{"st", "nd", "rd", "th"} {
			text = strings.TrimSuffix(text, suffix)
		}
		if len(text) == 0 || len(text) > 2 || !allDigits(text) {
			continue
		}
		day, _ := strconv.Atoi(text)
		if validDay(year, month, day) {
			return day, true
		}
	}
	return 0, false
}

func parseYear(s string) (int, bool) {
	if len(s) != 4 || !allDigits(s) {
		return 0, false
	}
	year, _ := strconv.Atoi(s)
	return year, year >= 1000
}

func splitNumeric(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' || r == '.' })
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func validMonth(m int) bool { return m >= 1 && m <= 12 }

func validDay(year int, month time.Month, day int) bool {
	return day >= 1 && day <= daysIn(year, month)
}

func startsWithDigit(s string) bool {
	return s != "" && unicode.IsDigit(rune(s[0]))
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// hasYear reports whether s contains a run of four digits
func hasYear(s string) bool {
	run := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			run++
			if run == 4 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
