package chapter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Number is a chapter number kept as canonical text: no leading zeros in the
// integer part (except a lone "0"), no trailing zeros in the fraction and no
// dangling decimal point. Ledger keys compare these strings directly so "10"
// and "10.0" can never drift apart.
type Number string

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?$`)

// Canon canonicalizes raw numeric text. Text that is not a non-negative
// decimal is returned trimmed but otherwise untouched.
func Canon(raw string) Number {
	s := strings.TrimSpace(raw)
	if !decimalPattern.MatchString(s) {
		return Number(s)
	}

	whole, frac, _ := strings.Cut(s, ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return Number(whole)
	}
	return Number(whole + "." + frac)
}

// Parse canonicalizes raw and reports whether it is a valid chapter number.
func Parse(raw string) (Number, bool) {
	n := Canon(raw)
	return n, n.Valid()
}

// FromFloat formats v the way chapter numbers are written: integers without a
// fractional part, everything else in shortest decimal form.
func FromFloat(v float64) Number {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if v == math.Trunc(v) {
		return Number(strconv.FormatFloat(v, 'f', 0, 64))
	}
	return Canon(strconv.FormatFloat(v, 'f', -1, 64))
}

func (n Number) String() string { return string(n) }

// Empty reports whether no number was derived.
func (n Number) Empty() bool { return n == "" }

// Valid reports whether n is a non-negative decimal.
func (n Number) Valid() bool {
	return decimalPattern.MatchString(string(n))
}

// Float returns the numeric value of n, or 0 when n is not valid.
func (n Number) Float() float64 {
	if !n.Valid() {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(string(n), "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// Floor returns the integer part of n. Extras such as "10.5" floor to 10.
func (n Number) Floor() int {
	return int(math.Floor(n.Float()))
}

// Less orders numbers by value.
func (n Number) Less(other Number) bool {
	return n.Float() < other.Float()
}
