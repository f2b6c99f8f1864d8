package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/RSKPixel/wealth/internal/amfi"
	"github.com/RSKPixel/wealth/internal/domain"
	"github.com/RSKPixel/wealth/internal/ledger"
	"github.com/RSKPixel/wealth/internal/normalize"
	"github.com/RSKPixel/wealth/internal/pdftext"
	"github.com/RSKPixel/wealth/internal/statement"
)

const statementText = `Consolidated Account Statement
15-Jan-2023 Purchase 999.00 1.000 999.00 1.000
Folio No: 123456789/0 KYC : OK
B205RG-HDFC Flexi Cap Fund - Growth - ISIN: INF000X01234(Advisor: DIRECT)
15-Jan-2023 Purchase 10,000.00 500.000 20.00 500.000
15-Jan-2023 Purchase 2,000.00 100.000 20.00 600.000
16-Jan-2023 Redemption (1,000.00) (50.000) 20.00 550.000
31-Feb-2023 Purchase 1,000.00 50.000 20.00 600.000
`

const feed = "Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date\n" +
	"\n" +
	"HDFC Mutual Fund\n" +
	"\n" +
	"119062;INF000X01234;-;HDFC Flexi Cap Fund-Direct Plan-Growth Option;20.0000;13-Jan-2023\n"

type fakeExtractor struct {
	pages []string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, _ string) ([]string, error) {
	f.calls++
	return f.pages, f.err
}

type staticRefs struct {
	ref *amfi.Reference
}

func (s staticRefs) Reference(_ context.Context) *amfi.Reference {
	return s.ref
}

type mockRepo struct {
	upserted [][]ledger.Row
	err      error
}

func (m *mockRepo) Upsert(_ context.Context, rows []ledger.Row) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, rows)
	return nil
}

func (m *mockRepo) ListByPAN(_ context.Context, _ string) ([]ledger.Row, error) {
	if len(m.upserted) == 0 {
		return nil, nil
	}
	return m.upserted[len(m.upserted)-1], nil
}

func (m *mockRepo) Instruments(_ context.Context) ([]string, error) {
	return nil, nil
}

type recordingHook struct {
	pan   string
	count int
}

func (h *recordingHook) Export(_ context.Context, pan string, txs []domain.Transaction) error {
	h.pan = pan
	h.count = len(txs)
	return nil
}

func pdfUpload() Upload {
	return Upload{
		Filename:    "cas.pdf",
		ContentType: "application/pdf",
		Document:    []byte("%PDF-1.7 fake"),
		ClientPAN:   " abcde1234f ",
	}
}

func newService(refs ReferenceSource, repo ledger.Repository, hooks ...AfterIngestHook) (*Service, *fakeExtractor) {
	ext := &fakeExtractor{pages: []string{statementText}}
	normalizer := normalize.NewNormalizer(domain.DefaultDirectionLabels)
	return NewService(ext, refs, statement.CAMSPatterns, normalizer, repo, hooks...), ext
}

func TestProcessStoresTransactions(t *testing.T) {
	ref := amfi.ParseReference(amfi.SplitLines(feed))
	repo := &mockRepo{}
	hook := &recordingHook{}
	svc, _ := newService(staticRefs{ref: ref}, repo, hook)

	res, err := svc.Process(context.Background(), pdfUpload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSuccess || res.Message != "File parsed successfully" {
		t.Errorf("envelope = %q / %q", res.Status, res.Message)
	}
	if res.ClientPAN != "ABCDE1234F" {
		t.Errorf("ClientPAN = %q", res.ClientPAN)
	}
	if len(res.Data) != 3 {
		t.Fatalf("got %d transactions, want 3", len(res.Data))
	}
	if len(res.Rejected) != 1 {
		t.Errorf("got %d rejected, want 1", len(res.Rejected))
	}
	if res.Orphans != 1 {
		t.Errorf("Orphans = %d, want 1", res.Orphans)
	}

	wantIDs := []string{"20230115-1", "20230115-2", "20230116-1"}
	for i, tx := range res.Data {
		if tx.TransactionID != wantIDs[i] {
			t.Errorf("Data[%d].TransactionID = %q, want %q", i, tx.TransactionID, wantIDs[i])
		}
		if tx.FolioName != "HDFC Mutual Fund" || tx.InstrumentName != "HDFC Flexi Cap Fund" {
			t.Errorf("Data[%d] identity = %q / %q", i, tx.FolioName, tx.InstrumentName)
		}
	}
	if res.Data[2].TransactionType != "sell" {
		t.Errorf("redemption TransactionType = %q, want sell", res.Data[2].TransactionType)
	}

	if len(repo.upserted) != 1 || len(repo.upserted[0]) != 3 {
		t.Fatalf("upserted batches = %v", repo.upserted)
	}
	if res.Stored != 3 {
		t.Errorf("Stored = %d, want 3", res.Stored)
	}
	if hook.pan != "ABCDE1234F" || hook.count != 3 {
		t.Errorf("hook called with %q/%d", hook.pan, hook.count)
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	ref := amfi.ParseReference(amfi.SplitLines(feed))
	repo := &mockRepo{}
	svc, _ := newService(staticRefs{ref: ref}, repo)

	first, err := svc.Process(context.Background(), pdfUpload())
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Process(context.Background(), pdfUpload())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Data, second.Data) {
		t.Error("identical input produced different transactions")
	}
	if !reflect.DeepEqual(repo.upserted[0], repo.upserted[1]) {
		t.Error("identical input produced different upsert rows")
	}
}

func TestParseWithoutReference(t *testing.T) {
	svc, _ := newService(staticRefs{}, nil)

	res, err := svc.Parse(context.Background(), pdfUpload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Data) != 3 {
		t.Fatalf("got %d transactions, want 3", len(res.Data))
	}
	for _, tx := range res.Data {
		if tx.FolioName != "" {
			t.Errorf("FolioName = %q, want empty without reference", tx.FolioName)
		}
		if tx.InstrumentName != "HDFC Flexi Cap Fund - Growth" {
			t.Errorf("InstrumentName = %q, want statement name", tx.InstrumentName)
		}
	}
}

func TestProcessNoTransactions(t *testing.T) {
	svc, ext := newService(staticRefs{}, &mockRepo{})
	ext.pages = []string{"", "Folio No: 1/0"}

	res, err := svc.Process(context.Background(), pdfUpload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSuccess || res.Message != "No transactions found" {
		t.Errorf("envelope = %q / %q", res.Status, res.Message)
	}
	if res.Data == nil || len(res.Data) != 0 {
		t.Errorf("Data = %v, want empty slice", res.Data)
	}
}

func TestValidateRejectsBeforeParsing(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Upload)
		wantErr error
	}{
		{"missing pan", func(u *Upload) { u.ClientPAN = "  " }, ErrMissingPAN},
		{"wrong content type", func(u *Upload) { u.ContentType = "text/csv" }, ErrUnsupportedType},
		{"not pdf bytes", func(u *Upload) { u.Document = []byte("PK\x03\x04") }, ErrUnsupportedType},
		{"empty document", func(u *Upload) { u.Document = nil }, ErrEmptyDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ext := newService(staticRefs{}, &mockRepo{})
			u := pdfUpload()
			tt.mutate(&u)

			res, err := svc.Process(context.Background(), u)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if res.Status != StatusError {
				t.Errorf("Status = %q, want error", res.Status)
			}
			if ext.calls != 0 {
				t.Error("extractor called for rejected input")
			}
		})
	}
}

func TestValidateAcceptsContentTypeParams(t *testing.T) {
	u := pdfUpload()
	u.ContentType = "application/pdf; charset=binary"
	if err := Validate(&u); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestProcessDecryptionFailure(t *testing.T) {
	repo := &mockRepo{}
	svc, ext := newService(staticRefs{}, repo)
	ext.err = pdftext.ErrDecrypt

	res, err := svc.Process(context.Background(), pdfUpload())
	if !errors.Is(err, pdftext.ErrDecrypt) || !errors.Is(err, ErrUnreadable) {
		t.Fatalf("error = %v, want ErrDecrypt and ErrUnreadable", err)
	}
	if res.Status != StatusError || len(res.Data) != 0 {
		t.Errorf("envelope = %+v", res)
	}
	if len(repo.upserted) != 0 {
		t.Error("nothing should be stored on decryption failure")
	}
}

func TestProcessStorageFailure(t *testing.T) {
	svc, _ := newService(staticRefs{}, &mockRepo{err: errors.New("db down")})

	res, err := svc.Process(context.Background(), pdfUpload())
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("error = %v, want ErrStorage", err)
	}
	if res.Status != StatusError {
		t.Errorf("Status = %q, want error", res.Status)
	}
}

func TestTransactionsRequiresRepository(t *testing.T) {
	svc, _ := newService(staticRefs{}, nil)
	if _, err := svc.Transactions(context.Background(), "P"); err == nil {
		t.Error("expected error without repository")
	}
}
