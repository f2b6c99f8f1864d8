package eod

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/RSKPixel/wealth/internal/amfi"
	"github.com/RSKPixel/wealth/internal/normalize"
)

const (
	AssetClassEquity = "Equity"
	AssetClassDebt   = "Debt"
	AssetClassGold   = "Gold"
)

// NAV is one end-of-day net asset value of a scheme.
type NAV struct {
	Date         time.Time       `json:"date"`
	SchemeCode   string          `json:"scheme_code"`
	SchemeName   string          `json:"scheme_name"`
	AMCName      string          `json:"amc_name"`
	ISINGrowth   string          `json:"isin_1"`
	ISINReinvest string          `json:"isin_2"`
	NAV          decimal.Decimal `json:"nav"`
	AssetClass   string          `json:"asset_class"`
	SchemeType   string          `json:"scheme_type"`
}

// SchemeTypes maps an ISIN to its scheme type (e.g. "Equity", "Debt", "Hybrid").
type SchemeTypes map[string]string

// LoadSchemeTypes reads an "isin,scheme_type" CSV with a header row.
func LoadSchemeTypes(path string) (SchemeTypes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scheme types: %w", err)
	}
	defer f.Close()
	return ReadSchemeTypes(f)
}

// ReadSchemeTypes parses an "isin,scheme_type" CSV with a header row.
func ReadSchemeTypes(r io.Reader) (SchemeTypes, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading scheme types: %w", err)
	}

	types := make(SchemeTypes, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < 2 {
			continue
		}
		types[strings.ToUpper(strings.TrimSpace(rec[0]))] = strings.TrimSpace(rec[1])
	}
	return types, nil
}

// ParseNAVs converts feed rows into NAV records. Only complete six-field rows under a known AMC
// are kept; "N.A." NAVs become zero.
func ParseNAVs(ref *amfi.Reference, types SchemeTypes) []NAV {
	var navs []NAV
	for _, rec := range ref.Records() {
		if rec.Fields != 6 || rec.AMCName == "" {
			continue
		}
		date, err := normalize.ParseDate(rec.NAVDate)
		if err != nil {
			slog.Debug("eod: skipping row with invalid date", "scheme", rec.SchemeCode, "date", rec.NAVDate)
			continue
		}
		nav, err := decimal.NewFromString(rec.NAV)
		if err != nil {
			nav = decimal.Zero
		}

		schemeType := types[rec.ISINGrowth]
		navs = append(navs, NAV{
			Date:         date,
			SchemeCode:   rec.SchemeCode,
			SchemeName:   rec.FundNameRaw,
			AMCName:      rec.AMCName,
			ISINGrowth:   rec.ISINGrowth,
			ISINReinvest: rec.ISINReinvest,
			NAV:          nav,
			AssetClass:   AssetClass(rec.FundNameRaw, schemeType),
			SchemeType:   schemeType,
		})
	}
	return navs
}

// AssetClass classifies a scheme: Gold by name, Debt by scheme type, Equity otherwise.
func AssetClass(schemeName, schemeType string) string {
	switch {
	case strings.Contains(schemeName, "Gold"):
		return AssetClassGold
	case schemeType == AssetClassDebt:
		return AssetClassDebt
	default:
		return AssetClassEquity
	}
}

// FilterHeld keeps NAVs whose growth or reinvestment ISIN is among instruments.
func FilterHeld(navs []NAV, instruments []string) []NAV {
	held := lo.SliceToMap(instruments, func(isin string) (string, struct{}) {
		return strings.ToUpper(isin), struct{}{}
	})
	return lo.Filter(navs, func(n NAV, _ int) bool {
		_, a := held[n.ISINGrowth]
		_, b := held[n.ISINReinvest]
		return a || b
	})
}
