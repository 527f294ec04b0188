package enums

import "fmt"

// LedgerSourceKind identifies the domain event that produced a ledger entry.
type LedgerSourceKind string

const (
	LedgerSourceDeposit    LedgerSourceKind = "deposit"
	LedgerSourceRedemption LedgerSourceKind = "redemption"
	LedgerSourceAdjustment LedgerSourceKind = "adjustment"
)

var validLedgerSourceKinds = []LedgerSourceKind{
	LedgerSourceDeposit,
	LedgerSourceRedemption,
	LedgerSourceAdjustment,
}

// IsValid reports whether the value is a known LedgerSourceKind.
func (s LedgerSourceKind) IsValid() bool {
	for _, candidate := range validLedgerSourceKinds {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLedgerSourceKind converts raw input into LedgerSourceKind.
func ParseLedgerSourceKind(value string) (LedgerSourceKind, error) {
	for _, candidate := range validLedgerSourceKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger source kind %q", value)
}
