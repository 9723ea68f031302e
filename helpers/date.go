package helpers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateQualifier marks an approximate or uncertain date.
type DateQualifier int

const (
	QualifierNone        DateQualifier = iota
	QualifierApproximate               // ~
	QualifierUncertain                 // ?
	QualifierBoth                      // %
)

// Date is a calendar date of year, month or day precision, optionally the
// start of a range. Only dates returned by ParseDate render; year 0 is a
// valid year.
type Date struct {
	Year      int
	Month     int
	Day       int
	Qualifier DateQualifier
	End       *Date

	parsed bool
}

var (
	isoDateRegex = regexp.MustCompile(`^(-?\d{4})(?:-(\d{2})(?:-(\d{2}))?)?([~?%])?$`)
	yearRegex    = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)
)

// layouts are tried after the ISO forms, most specific first.
var layouts = []struct {
	layout string
	day    bool
}{
	{time.RFC3339, true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02T15:04:05", true},
	{"01/02/2006", true},
	{"1/2/2006", true},
	{"January 2, 2006", true},
	{"Jan 2, 2006", true},
	{"2 January 2006", true},
	{"January 2006", false},
	{"Jan 2006", false},
}

// ParseDate reads a date in EDTF/ISO 8601 form, a range "start/end" of two
// such dates, or one of a few common written forms (US month-first for
// numeric dates). ok is false for anything else, including EDTF forms
// such as seasons or open ranges.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}

	if start, end, found := strings.Cut(s, "/"); found && !strings.Contains(end, "/") {
		d, ok := parseSingle(start)
		e, eok := parseSingle(end)
		if ok && eok {
			d.End = &e
			return d, true
		}
	}

	return parseSingle(s)
}

func parseSingle(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if m := isoDateRegex.FindStringSubmatch(s); m != nil {
		var d Date
		d.Year, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			d.Month, _ = strconv.Atoi(m[2])
		}
		if m[3] != "" {
			d.Day, _ = strconv.Atoi(m[3])
		}
		switch m[4] {
		case "~":
			d.Qualifier = QualifierApproximate
		case "?":
			d.Qualifier = QualifierUncertain
		case "%":
			d.Qualifier = QualifierBoth
		}
		if d.Month > 12 || d.Day > 31 {
			return Date{}, false
		}
		d.parsed = true
		return d, true
	}

	for _, l := range layouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		d := Date{Year: t.Year(), Month: int(t.Month()), parsed: true}
		if l.day {
			d.Day = t.Day()
		}
		return d, true
	}
	return Date{}, false
}

// String formats the date as EDTF: 2006, 2006-01, 2006-01-02, with a
// qualifier suffix and "/end" for ranges.
func (d Date) String() string {
	if !d.parsed {
		return ""
	}

	var sb strings.Builder
	writeYear(&sb, d.Year)
	if d.Month > 0 {
		sb.WriteString("-")
		writePadded(&sb, d.Month)
		if d.Day > 0 {
			sb.WriteString("-")
			writePadded(&sb, d.Day)
		}
	}

	switch d.Qualifier {
	case QualifierApproximate:
		sb.WriteString("~")
	case QualifierUncertain:
		sb.WriteString("?")
	case QualifierBoth:
		sb.WriteString("%")
	}

	if d.End != nil {
		sb.WriteString("/")
		sb.WriteString(d.End.String())
	}
	return sb.String()
}

func writeYear(sb *strings.Builder, year int) {
	if year < 0 {
		sb.WriteString("-")
		year = -year
	}
	s := strconv.Itoa(year)
	sb.WriteString(strings.Repeat("0", max(0, 4-len(s))))
	sb.WriteString(s)
}

func writePadded(sb *strings.Builder, n int) {
	if n < 10 {
		sb.WriteString("0")
	}
	sb.WriteString(strconv.Itoa(n))
}

// NormalizeDate rewrites a date as EDTF, or returns s unchanged when it
// cannot be read.
func NormalizeDate(s string) string {
	d, ok := ParseDate(s)
	if !ok {
		return s
	}
	return d.String()
}

// DateYear returns the four digit year of a date. Text that is not a date
// yields the first plausible year in it, or "" when there is none.
func DateYear(s string) string {
	d, ok := ParseDate(s)
	if !ok {
		m := yearRegex.FindStringSubmatch(s)
		if m == nil {
			return ""
		}
		return m[1]
	}
	var sb strings.Builder
	writeYear(&sb, d.Year)
	return sb.String()
}
