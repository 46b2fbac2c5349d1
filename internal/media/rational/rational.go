// Package rational implements exact fractions for frame rates and pixel
// aspect ratios as reported by ffprobe.
package rational

import (
	"fmt"
	"strconv"
	"strings"
)

// Rational is an exact fraction. The zero value is not a valid rational.
type Rational struct {
	Num int
	Den int
}

// Unit is the 1/1 ratio used when a stream omits its sample aspect ratio.
var Unit = Rational{Num: 1, Den: 1}

// ParseError reports a malformed rational string.
type ParseError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse rational %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse rational %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads "num/den" or "num:den".
func Parse(s string) (Rational, error) {
	trimmed := strings.TrimSpace(s)
	parts := strings.Split(strings.ReplaceAll(trimmed, ":", "/"), "/")
	if len(parts) != 2 {
		return Rational{}, &ParseError{Input: s, Reason: "expected two components"}
	}
	num, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Rational{}, &ParseError{Input: s, Reason: "invalid numerator", Err: err}
	}
	den, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Rational{}, &ParseError{Input: s, Reason: "invalid denominator", Err: err}
	}
	if den == 0 {
		return Rational{}, &ParseError{Input: s, Reason: "zero denominator"}
	}
	return Rational{Num: num, Den: den}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Rational {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// IsZero reports whether the numerator is zero or the value is unset.
func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

// Float64 returns the fraction as a float, or 0 for an unset value.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return strconv.Itoa(r.Num) + "/" + strconv.Itoa(r.Den)
}
