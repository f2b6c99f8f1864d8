package statement

import (
	"log/slog"
	"strings"

	"github.com/RSKPixel/wealth/internal/amfi"
	"github.com/RSKPixel/wealth/internal/domain"
)

// State is the scanner position relative to folio and fund headers.
type State int

const (
	NoFolio State = iota
	InFolioNoFund
	InFolioWithFund
)

func (s State) String() string {
	switch s {
	case NoFolio:
		return "NO_FOLIO"
	case InFolioNoFund:
		return "IN_FOLIO_NO_FUND"
	case InFolioWithFund:
		return "IN_FOLIO_WITH_FUND"
	default:
		return "UNKNOWN"
	}
}

// Resolver attaches AMC and canonical fund names to an ISIN.
type Resolver interface {
	Resolve(isin string) (amfi.Resolution, bool)
}

// Context is the header state carried across lines. It is only ever overwritten, never reset.
type Context struct {
	Folio    string
	ISIN     string
	AMC      string
	FundName string
}

// Scanner walks statement lines once, in document order.
type Scanner struct {
	patterns Patterns
	resolver Resolver

	ctx     Context
	line    int
	txs     []domain.RawTransaction
	orphans int
}

// NewScanner creates a scanner. resolver may be nil, in which case every fund header falls
// back to the name printed on the statement.
func NewScanner(patterns Patterns, resolver Resolver) *Scanner {
	return &Scanner{patterns: patterns, resolver: resolver}
}

// State reports the current position of the state machine.
func (s *Scanner) State() State {
	switch {
	case s.ctx.FundName != "":
		return InFolioWithFund
	case s.ctx.Folio != "":
		return InFolioNoFund
	default:
		return NoFolio
	}
}

// Context returns a copy of the current header state.
func (s *Scanner) Context() Context {
	return s.ctx
}

// Transactions returns the transactions captured so far.
func (s *Scanner) Transactions() []domain.RawTransaction {
	return s.txs
}

// Orphans returns how many transaction lines were dropped for lack of a fund header.
func (s *Scanner) Orphans() int {
	return s.orphans
}

// ScanLine feeds one line. Folio, fund and transaction checks are independent: a single line
// may update headers and still be evaluated as a transaction.
func (s *Scanner) ScanLine(line string) {
	s.line++

	if m := s.patterns.Folio.FindStringSubmatch(line); m != nil {
		if folio := domain.StripSpaces(m[1]); folio != "" {
			s.ctx.Folio = folio
		}
	}

	if s.patterns.FundHeader.MatchString(line) {
		s.enterFund(line)
	}

	if m := s.patterns.Transaction.FindStringSubmatch(line); m != nil {
		if s.State() != InFolioWithFund {
			s.orphans++
			slog.Debug("statement: skipping transaction before fund header", "line", s.line)
			return
		}
		s.txs = append(s.txs, domain.RawTransaction{
			Line:        s.line,
			Folio:       s.ctx.Folio,
			ISIN:        s.ctx.ISIN,
			FundName:    s.ctx.FundName,
			AMCName:     s.ctx.AMC,
			Date:        m[1],
			Description: strings.TrimSpace(m[2]),
			Amount:      m[3],
			Units:       m[4],
			NAV:         m[5],
			UnitBalance: m[6],
		})
	}
}

func (s *Scanner) enterFund(line string) {
	isin := s.findISIN(line)

	var res amfi.Resolution
	resolved := false
	if isin != "" && s.resolver != nil {
		res, resolved = s.resolver.Resolve(isin)
	}

	s.ctx.ISIN = isin
	s.ctx.AMC = ""
	if resolved {
		s.ctx.AMC = res.AMCName
		if res.FundName != "" {
			s.ctx.FundName = res.FundName
			return
		}
	}

	s.ctx.FundName = s.fallbackName(line)
	slog.Debug("statement: no reference name, using statement name", "isin", isin, "resolved", resolved, "name", s.ctx.FundName)
}

// findISIN prefers a code printed after the ISIN marker over anything earlier in the line.
func (s *Scanner) findISIN(line string) string {
	upper := strings.ToUpper(line)
	if idx := strings.Index(upper, "ISIN"); idx >= 0 {
		if isin := s.patterns.ISIN.FindString(upper[idx+len("ISIN"):]); isin != "" {
			return isin
		}
	}
	return s.patterns.ISIN.FindString(upper)
}

func (s *Scanner) fallbackName(line string) string {
	if m := s.patterns.FundName.FindStringSubmatch(line); m != nil {
		if name := strings.Trim(m[1], " -:\t"); name != "" {
			return name
		}
	}
	return strings.TrimSpace(line)
}

// Result is the outcome of scanning a whole document.
type Result struct {
	Transactions []domain.RawTransaction
	Orphans      int
	Lines        int
}

// Scan runs a fresh scanner over every line of every page.
func Scan(pages []string, patterns Patterns, resolver Resolver) Result {
	s := NewScanner(patterns, resolver)
	for _, page := range pages {
		for _, line := range strings.Split(strings.ReplaceAll(page, "\r\n", "\n"), "\n") {
			s.ScanLine(line)
		}
	}
	return Result{Transactions: s.txs, Orphans: s.orphans, Lines: s.line}
}
