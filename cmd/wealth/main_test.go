package main

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/RSKPixel/wealth/internal/database"
)

func TestEmbeddedMigrationsKeyNAVsBySchemeCode(t *testing.T) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	pending, err := database.PendingMigrations(sub, nil)
	if err != nil {
		t.Fatalf("PendingMigrations: %v", err)
	}
	if len(pending) == 0 {
		t.Fatal("no embedded migrations")
	}

	var schema strings.Builder
	for _, name := range pending {
		data, err := fs.ReadFile(sub, name)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		schema.Write(data)
	}

	sql := schema.String()
	if !strings.Contains(sql, "UNIQUE (date, scheme_code)") {
		t.Error("mutualfund_eod has no (date, scheme_code) unique key")
	}
	if !strings.Contains(sql, "DROP CONSTRAINT IF EXISTS mutualfund_eod_date_isin_1_key") {
		t.Error("the (date, isin_1) key is never dropped")
	}
}
