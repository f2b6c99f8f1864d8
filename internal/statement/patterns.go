package statement

import (
	"regexp"

	"github.com/RSKPixel/wealth/internal/amfi"
)

// Patterns holds the line classification expressions for one statement layout.
type Patterns struct {
	// Folio captures the folio number in group 1.
	Folio *regexp.Regexp
	// FundHeader recognizes a scheme header line.
	FundHeader *regexp.Regexp
	// ISIN extracts the instrument code embedded in a scheme header.
	ISIN *regexp.Regexp
	// FundName captures the scheme name between a dash and the ISIN marker in group 1.
	FundName *regexp.Regexp
	// Transaction captures date, description, amount, units, NAV and unit balance.
	Transaction *regexp.Regexp
}

const accountingNumber = `(\(?-?[0-9][0-9,]*(?:\.[0-9]+)?\)?)`

// CAMSPatterns matches the CAMS/KFintech consolidated account statement layout.
var CAMSPatterns = Patterns{
	Folio:      regexp.MustCompile(`Folio\s*No\s*[:.]?\s*([0-9][0-9/ ]*)`),
	FundHeader: regexp.MustCompile(`\bFund\b.*\bISIN\b`),
	ISIN:       amfi.ISINPattern,
	FundName:   regexp.MustCompile(`-\s*(.*?)\s*-?\s*ISIN\b`),
	Transaction: regexp.MustCompile(`^\s*(\d{2}-[A-Za-z]{3}-\d{4})\s+(.*?)\s+` +
		accountingNumber + `\s+` + accountingNumber + `\s+` + accountingNumber + `\s+` + accountingNumber + `\s*$`),
}
