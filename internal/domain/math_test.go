package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSafeParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid integer", "100", "100"},
		{"valid decimal", "3.14", "3.14"},
		{"negative", "-5.5", "-5.5"},
		{"empty string", "", "0"},
		{"invalid string", "abc", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeParse(tt.input)
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("SafeParse(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestParseAccounting(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"negative parentheses", "(1,234.56)", "-1234.56", false},
		{"positive thousands", "1,234.56", "1234.56", false},
		{"plain", "500.000", "500", false},
		{"lakh grouping", "1,00,000.00", "100000", false},
		{"padded", "  (20.5)  ", "-20.5", false},
		{"empty", "", "", true},
		{"empty parentheses", "()", "", true},
		{"garbage", "12a.4", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAccounting(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAccounting(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeAccounting(t *testing.T) {
	if got := NormalizeAccounting("(1,234.56)"); got != "-1234.56" {
		t.Errorf("NormalizeAccounting = %q, want -1234.56", got)
	}
	if got := NormalizeAccounting("1,234.56"); got != "1234.56" {
		t.Errorf("NormalizeAccounting = %q, want 1234.56", got)
	}
}

func TestDivideOrZero(t *testing.T) {
	got := DivideOrZero(decimal.NewFromInt(10000), decimal.NewFromInt(500), PricePrecision)
	if !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("DivideOrZero = %s, want 20", got)
	}
	if got := DivideOrZero(decimal.NewFromInt(5), decimal.Zero, PricePrecision); !got.IsZero() {
		t.Errorf("DivideOrZero by zero = %s, want 0", got)
	}
}

func TestStripSpaces(t *testing.T) {
	if got := StripSpaces(" 123456789 / 0 \t"); got != "123456789/0" {
		t.Errorf("StripSpaces = %q, want 123456789/0", got)
	}
}
