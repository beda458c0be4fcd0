// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by users or
// read from CSV files into currency units.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a decimal string to currency units rounded to cents.
//
// It accepts an optional sign and currency symbol, a dot or comma decimal
// separator and comma thousands separators, and performs half-up rounding on
// the third decimal place. Zero is rejected.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34, nil
//	ParseAmount("12,34")     -> 12.34, nil
//	ParseAmount("$1,500.00") -> 1500, nil
//	ParseAmount("-20.5")     -> -20.5, nil
//	ParseAmount("12.345")    -> 12.35, nil
func ParseAmount(s string) (float64, error) {
	v, err := ParseMoney(s)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseMoney parses like ParseAmount but accepts zero. Balances, payments,
// income and planned amounts may legitimately be zero.
func ParseMoney(s string) (float64, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		neg = s[0] == '-'
		s = s[1:]
	}
	s = strings.TrimSpace(strings.TrimLeft(s, "$€£"))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = normalizeSeparators(s)

	// Split into integer and fractional part
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<53 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return float64(cents) / 100, nil
}

// normalizeSeparators rewrites s so that '.' is the only decimal separator.
// A lone comma followed by one or two digits is a decimal comma; any other
// comma is a thousands separator.
func normalizeSeparators(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		idx := strings.LastIndex(s, ",")
		if tail := len(s) - idx - 1; tail >= 1 && tail <= 2 {
			return strings.Replace(s, ",", ".", 1)
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

// RoundCents rounds v half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount renders v with two decimals for display.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
