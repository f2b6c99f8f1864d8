package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/RSKPixel/wealth/internal/amfi"
	"github.com/RSKPixel/wealth/internal/domain"
	"github.com/RSKPixel/wealth/internal/ledger"
	"github.com/RSKPixel/wealth/internal/normalize"
	"github.com/RSKPixel/wealth/internal/statement"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// ContentTypePDF is the only accepted document type.
	ContentTypePDF = "application/pdf"

	msgParsed         = "File parsed successfully"
	msgNoTransactions = "No transactions found"
)

var (
	// ErrUnsupportedType rejects documents that are not PDFs.
	ErrUnsupportedType = errors.New("unsupported file type, only PDF files are allowed")
	// ErrMissingPAN rejects uploads without a client identifier.
	ErrMissingPAN = errors.New("client PAN is required")
	// ErrEmptyDocument rejects zero-byte uploads.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrUnreadable marks documents whose text could not be extracted.
	ErrUnreadable = errors.New("statement could not be read")
	// ErrStorage marks failures writing to the ledger.
	ErrStorage = errors.New("storing transactions")
)

var pdfMagic = []byte("%PDF-")

// Extractor yields the text of every page of a document.
type Extractor interface {
	Extract(ctx context.Context, doc []byte, password string) ([]string, error)
}

// ReferenceSource provides the current instrument reference; nil means unavailable.
type ReferenceSource interface {
	Reference(ctx context.Context) *amfi.Reference
}

// AfterIngestHook is called after transactions have been stored.
type AfterIngestHook interface {
	Export(ctx context.Context, clientPAN string, txs []domain.Transaction) error
}

// Upload is one statement submitted for parsing.
type Upload struct {
	Filename    string
	ContentType string
	Document    []byte
	Password    string
	ClientPAN   string
}

// Result is the status envelope returned to callers.
type Result struct {
	Status    string               `json:"status"`
	Message   string               `json:"message"`
	ClientPAN string               `json:"pan,omitempty"`
	Data      []domain.Transaction `json:"data"`
	Rejected  []domain.RecordError `json:"rejected,omitempty"`
	Orphans   int                  `json:"orphans,omitempty"`
	Stored    int                  `json:"stored"`
}

// Failure builds an error envelope.
func Failure(err error) Result {
	return Result{Status: StatusError, Message: err.Error(), Data: []domain.Transaction{}}
}

// Service runs the statement pipeline: extract, scan, normalize, project, store.
type Service struct {
	extractor  Extractor
	refs       ReferenceSource
	patterns   statement.Patterns
	normalizer *normalize.Normalizer
	repo       ledger.Repository
	hooks      []AfterIngestHook
}

// NewService creates the ingestion pipeline. repo may be nil to parse without storing.
func NewService(
	extractor Extractor,
	refs ReferenceSource,
	patterns statement.Patterns,
	normalizer *normalize.Normalizer,
	repo ledger.Repository,
	hooks ...AfterIngestHook,
) *Service {
	return &Service{
		extractor:  extractor,
		refs:       refs,
		patterns:   patterns,
		normalizer: normalizer,
		repo:       repo,
		hooks:      hooks,
	}
}

// Validate checks an upload before any parsing happens and canonicalizes its PAN.
func Validate(u *Upload) error {
	u.ClientPAN = strings.ToUpper(strings.TrimSpace(u.ClientPAN))
	if u.ClientPAN == "" {
		return ErrMissingPAN
	}
	if len(u.Document) == 0 {
		return ErrEmptyDocument
	}
	mediaType, _, err := mime.ParseMediaType(u.ContentType)
	if err != nil || mediaType != ContentTypePDF {
		return fmt.Errorf("%w: received %q", ErrUnsupportedType, u.ContentType)
	}
	if !bytes.HasPrefix(u.Document, pdfMagic) {
		return fmt.Errorf("%w: content is not a PDF document", ErrUnsupportedType)
	}
	return nil
}

// Parse runs the pipeline without storing anything.
func (s *Service) Parse(ctx context.Context, u Upload) (Result, error) {
	if err := Validate(&u); err != nil {
		return Failure(err), err
	}

	pages, err := s.extractor.Extract(ctx, u.Document, u.Password)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUnreadable, err)
		return Failure(err), err
	}

	return s.ParsePages(ctx, u.ClientPAN, pages), nil
}

// ParsePages scans and normalizes already extracted page text.
func (s *Service) ParsePages(ctx context.Context, clientPAN string, pages []string) Result {
	var ref *amfi.Reference
	if s.refs != nil {
		ref = s.refs.Reference(ctx)
	}
	if ref == nil {
		slog.Warn("ingest: reference feed unavailable, fund names will not be enriched")
	}

	scanned := statement.Scan(pages, s.patterns, ref)
	txs, rejected := s.normalizer.Normalize(clientPAN, scanned.Transactions)

	res := Result{
		Status:    StatusSuccess,
		Message:   msgParsed,
		ClientPAN: clientPAN,
		Data:      txs,
		Rejected:  rejected,
		Orphans:   scanned.Orphans,
	}
	if len(txs) == 0 {
		res.Message = msgNoTransactions
		res.Data = []domain.Transaction{}
	}

	slog.Info("ingest: statement parsed",
		"pan", clientPAN,
		"pages", len(pages),
		"lines", scanned.Lines,
		"transactions", len(txs),
		"rejected", len(rejected),
		"orphans", scanned.Orphans,
	)
	return res
}

// Process parses the upload and upserts its transactions into the ledger.
func (s *Service) Process(ctx context.Context, u Upload) (Result, error) {
	res, err := s.Parse(ctx, u)
	if err != nil {
		return res, err
	}
	if err := s.Store(ctx, res.ClientPAN, res.Data); err != nil {
		return Failure(err), err
	}
	if s.repo != nil {
		res.Stored = len(res.Data)
	}
	return res, nil
}

// Store upserts transactions and runs the post-ingest hooks.
func (s *Service) Store(ctx context.Context, clientPAN string, txs []domain.Transaction) error {
	if s.repo == nil || len(txs) == 0 {
		return nil
	}
	if err := s.repo.Upsert(ctx, ledger.Project(txs)); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	for _, hook := range s.hooks {
		if err := hook.Export(ctx, clientPAN, txs); err != nil {
			slog.Error("ingest: export hook failed", "pan", clientPAN, "error", err)
		}
	}
	return nil
}

// Transactions lists stored ledger rows for a client.
func (s *Service) Transactions(ctx context.Context, clientPAN string) ([]ledger.Row, error) {
	if s.repo == nil {
		return nil, errors.New("ledger storage is not configured")
	}
	return s.repo.ListByPAN(ctx, strings.ToUpper(strings.TrimSpace(clientPAN)))
}
