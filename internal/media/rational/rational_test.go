package rational

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Rational
	}{
		{"24000/1001", Rational{Num: 24000, Den: 1001}},
		{"25:1", Rational{Num: 25, Den: 1}},
		{" 16/15 ", Rational{Num: 16, Den: 15}},
		{"0/1", Rational{Num: 0, Den: 1}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"abc", "", "1/2/3", "x/1", "1/y", "30/0", "0/0"} {
		_, err := Parse(in)
		if err == nil {
			t.Fatalf("expected error for %q", in)
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("expected *ParseError for %q, got %T", in, err)
		}
		if perr.Input != in {
			t.Fatalf("expected input %q recorded, got %q", in, perr.Input)
		}
	}
}

func TestRationalHelpers(t *testing.T) {
	r := Rational{Num: 30000, Den: 1001}
	if r.String() != "30000/1001" {
		t.Fatalf("unexpected string: %s", r.String())
	}
	if f := r.Float64(); f < 29.97 || f > 29.98 {
		t.Fatalf("unexpected float: %v", f)
	}
	if r.IsZero() {
		t.Fatal("expected non-zero rational")
	}
	if !(Rational{}).IsZero() {
		t.Fatal("expected zero value to report IsZero")
	}
	if (Rational{}).Float64() != 0 {
		t.Fatal("expected zero float for unset rational")
	}
	if MustParse("1:1") != Unit {
		t.Fatal("expected 1:1 to equal Unit")
	}
}
