package quant

import (
	"testing"
)

func TestToPriceMicros(t *testing.T) {
	tests := []struct {
		input    float64
		expected PriceMicros
	}{
		{1.23, 1230000},
		{0.000001, 1},
		{0.0, 0},
		{-1.23, -1230000},
	}

	for _, tt := range tests {
		got := ToPriceMicros(tt.input)
		if got != tt.expected {
			t.Errorf("ToPriceMicros(%f) = %d; want %d", tt.input, got, tt.expected)
		}
	}
}

func TestToSatsStr(t *testing.T) {
	tests := []struct {
		input    string
		expected Sats
	}{
		{"1", 100000000},
		{"0.5", 50000000},
		{"10.00000001", 1000000001},
		{"0.000000001", 0}, // below sat precision, truncated
		{"-2.5", -250000000},
		{"", 0},
	}

	for _, tt := range tests {
		got := ToSatsStr(tt.input)
		if got != tt.expected {
			t.Errorf("ToSatsStr(%q) = %d; want %d", tt.input, got, tt.expected)
		}
	}
}

func TestSats_String(t *testing.T) {
	s := Sats(250000000)
	expected := "2.50000000"
	if s.String() != expected {
		t.Errorf("Sats(250000000).String() = %s; want %s", s.String(), expected)
	}
}

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice("2.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 2500000 {
		t.Errorf("ParsePrice(2.5) = %d; want 2500000", p)
	}

	// Sub-micro precision must be rejected, not rounded.
	if _, err := ParsePrice("0.0000001"); err == nil {
		t.Error("expected error for sub-micro precision")
	}

	if _, err := ParsePrice("not-a-number"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount("10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != 10*SatScale {
		t.Errorf("ParseAmount(10) = %d; want %d", a, 10*SatScale)
	}

	if _, err := ParseAmount("0.000000001"); err == nil {
		t.Error("expected error for sub-sat precision")
	}
}
