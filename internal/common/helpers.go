package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	SOLDecimals = 9 // SOL has 9 decimals (lamports)
)

// LamportsToSOL converts lamports to SOL string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return FormatUnits(lamports, SOLDecimals)
}

// SOLToLamports converts SOL string to lamports without float precision loss
func SOLToLamports(sol string) (uint64, error) {
	return ParseUnits(sol, SOLDecimals)
}

// FormatUnits converts integer to decimal string by inserting decimal point
// Example: FormatUnits(24981836, 9) = "0.024981836"
func FormatUnits(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)
	if decimals == 0 {
		return s
	}

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// ParseUnits converts decimal string to integer by removing decimal point.
// Digits beyond decimals are rejected rather than truncated.
// Example: ParseUnits("0.024981836", 9) = 24981836
func ParseUnits(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	whole, frac, found := strings.Cut(s, ".")
	if found && strings.Contains(frac, ".") {
		return 0, fmt.Errorf("invalid decimal format")
	}
	if whole == "" {
		whole = "0"
	}

	// Pad fractional part to exact decimals
	if len(frac) > decimals {
		return 0, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	// Combine and parse
	n, err := strconv.ParseUint(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return n, nil
}
