package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"John Public", "John", "Public"},
		{"John Q. Public", "John", "Q. Public"},
		{"Cher", "Cher", ""},
		{"  spaced   out  ", "spaced", "out"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("SplitName(%q) = %q, %q; want %q, %q", tt.in, first, last, tt.first, tt.last)
		}
	}
}

func TestStripHonorific(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mr. John Public", "John Public"},
		{"mrs Jane Doe", "Jane Doe"},
		{"Sensei Miyagi Nariyoshi", "Miyagi Nariyoshi"},
		{"Dr. Who", "Who"},
		{"Mister Rogers", "Mister Rogers"},
		{"Madison Mrs", "Madison Mrs"},
		{"Dr.", "Dr."},
		{"John Public", "John Public"},
	}
	for _, tt := range tests {
		if got := StripHonorific(tt.in); got != tt.want {
			t.Errorf("StripHonorific(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCoerceBool(t *testing.T) {
	truthy := []any{true, 1, int64(1), float64(1), "1", "true", "TRUE"}
	for _, v := range truthy {
		if !CoerceBool(v) {
			t.Errorf("CoerceBool(%v) = false, want true", v)
		}
	}
	falsy := []any{false, 0, 2, "0", "yes", "on", "", nil, []string{"1"}}
	for _, v := range falsy {
		if CoerceBool(v) {
			t.Errorf("CoerceBool(%v) = true, want false", v)
		}
	}
}

func TestCoerceInt(t *testing.T) {
	n, err := CoerceInt("42")
	if err != nil || n == nil || *n != 42 {
		t.Errorf("CoerceInt(\"42\") = %v, %v", n, err)
	}

	n, err = CoerceInt(float64(7))
	if err != nil || n == nil || *n != 7 {
		t.Errorf("CoerceInt(7.0) = %v, %v", n, err)
	}

	for _, v := range []any{nil, "", "  "} {
		n, err = CoerceInt(v)
		if err != nil || n != nil {
			t.Errorf("CoerceInt(%v) = %v, %v; want nil, nil", v, n, err)
		}
	}

	if _, err = CoerceInt("twelve"); err == nil {
		t.Error("CoerceInt(\"twelve\") did not fail")
	}
}

func TestCoerceAmount(t *testing.T) {
	amt, ok, err := CoerceAmount("99.50")
	if err != nil || !ok || !amt.Equal(decimal.RequireFromString("99.50")) {
		t.Errorf("CoerceAmount(\"99.50\") = %v, %v, %v", amt, ok, err)
	}

	_, ok, err = CoerceAmount("")
	if err != nil || ok {
		t.Errorf("CoerceAmount(\"\") ok = %v, err = %v; want false, nil", ok, err)
	}

	if _, _, err = CoerceAmount("lots"); err == nil {
		t.Error("CoerceAmount(\"lots\") did not fail")
	}
}

func TestAddDaysMonthRollover(t *testing.T) {
	got, err := AddDays("2024-01-15", RenewalOffsetDays)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2024-02-12" {
		t.Errorf("AddDays(2024-01-15, 28) = %q, want 2024-02-12", got)
	}

	// leap year February
	got, _ = AddDays("2024-02-05", RenewalOffsetDays)
	if got != "2024-03-04" {
		t.Errorf("AddDays(2024-02-05, 28) = %q, want 2024-03-04", got)
	}

	if _, err = AddDays("15/01/2024", 28); err == nil {
		t.Error("AddDays accepted a non-ISO date")
	}
}
