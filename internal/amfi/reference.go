package amfi

import (
	"regexp"
	"strings"
)

// ISINPattern matches an ISIN-shaped code: two letters, nine alphanumerics, a check digit.
var ISINPattern = regexp.MustCompile(`[A-Z]{2}[A-Z0-9]{9}[0-9]`)

var (
	isinExact     = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	planTokens    = regexp.MustCompile(`(?i)\b(direct|plan|growth|option)\b`)
)

// Record is one scheme row of the feed.
// Feed columns: Scheme Code;ISIN Div Payout/ISIN Growth;ISIN Div Reinvestment;Scheme Name;NAV;Date
type Record struct {
	SchemeCode   string `json:"schemeCode"`
	ISINGrowth   string `json:"isinGrowth"`
	ISINReinvest string `json:"isinReinvest"`
	FundNameRaw  string `json:"fundNameRaw"`
	NAV          string `json:"nav"`
	NAVDate      string `json:"navDate"`
	AMCName      string `json:"amcName"`
	// Fields is the number of semicolon-separated fields in the source row.
	Fields int `json:"-"`
}

// Resolution is the identity attached to an instrument.
type Resolution struct {
	AMCName  string `json:"amcName"`
	FundName string `json:"fundName"`
	NAV      string `json:"nav"`
}

// Reference is an immutable, indexed view of one feed download.
type Reference struct {
	records []Record
	byISIN  map[string]int
}

// ParseReference builds a Reference from raw feed lines.
//
// A header line is a non-blank line with blank lines on both sides; the most recent header is
// the AMC of the rows that follow it. Category banners share that shape, so the AMC line that
// immediately precedes the rows wins. Rows seen before any header (the column legend) are skipped.
func ParseReference(lines []string) *Reference {
	ref := &Reference{byISIN: make(map[string]int)}

	amc := ""
	for i, line := range lines {
		current := strings.TrimSpace(line)
		if current == "" {
			continue
		}
		if isHeader(lines, i) {
			amc = current
			continue
		}
		if amc == "" || !strings.Contains(current, ";") {
			continue
		}

		fields := strings.Split(current, ";")
		if len(fields) < 5 {
			continue
		}
		rec := Record{
			SchemeCode:   strings.TrimSpace(fields[0]),
			ISINGrowth:   strings.ToUpper(strings.TrimSpace(fields[1])),
			ISINReinvest: strings.ToUpper(strings.TrimSpace(fields[2])),
			FundNameRaw:  strings.TrimSpace(fields[3]),
			NAV:          strings.TrimSpace(fields[4]),
			AMCName:      amc,
			Fields:       len(fields),
		}
		if len(fields) > 5 {
			rec.NAVDate = strings.TrimSpace(fields[5])
		}

		idx := len(ref.records)
		ref.records = append(ref.records, rec)
		for _, isin := range []string{rec.ISINGrowth, rec.ISINReinvest} {
			if !isinExact.MatchString(isin) {
				continue
			}
			if _, seen := ref.byISIN[isin]; !seen {
				ref.byISIN[isin] = idx
			}
		}
	}

	return ref
}

func isHeader(lines []string, i int) bool {
	if i == 0 || i == len(lines)-1 {
		return false
	}
	return strings.TrimSpace(lines[i-1]) == "" && strings.TrimSpace(lines[i+1]) == ""
}

// Records returns the scheme rows in feed order.
func (r *Reference) Records() []Record {
	if r == nil {
		return nil
	}
	return r.records
}

// Len returns the number of indexed ISINs.
func (r *Reference) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byISIN)
}

// Lookup returns the raw feed row for an ISIN (case-insensitive).
func (r *Reference) Lookup(isin string) (Record, bool) {
	if r == nil {
		return Record{}, false
	}
	idx, ok := r.byISIN[strings.ToUpper(strings.TrimSpace(isin))]
	if !ok {
		return Record{}, false
	}
	return r.records[idx], true
}

// Resolve returns the AMC, cleaned fund name and NAV for an ISIN.
// A nil Reference or an unknown ISIN resolves to false, never to an error.
func (r *Reference) Resolve(isin string) (Resolution, bool) {
	rec, ok := r.Lookup(isin)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{
		AMCName:  rec.AMCName,
		FundName: CleanFundName(rec.FundNameRaw),
		NAV:      rec.NAV,
	}, true
}

// CleanFundName strips plan/option noise from a scheme name.
// "Axis Bluechip Fund - Direct Plan - Growth (formerly X)" → "Axis Bluechip Fund"
func CleanFundName(name string) string {
	name = parenthetical.ReplaceAllString(name, " ")
	name = planTokens.ReplaceAllString(name, " ")

	var parts []string
	for _, part := range strings.Split(name, "-") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
