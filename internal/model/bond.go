// Package model defines the core data structures for the bondflow application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// RatingUnavailable is the normalized value for missing or placeholder ratings.
const RatingUnavailable = "N/A"

// Bond represents a single bond listing as reported by the upstream market API.
type Bond struct {
	ISIN      string // International Securities Identification Number
	Code      string // Interbank market bond code
	Issuer    string // Full legal name of the issuing entity
	BondType  string // Human-readable bond type (e.g. "Treasury Bond")
	IssueDate string // Issue start date, YYYY-MM-DD as reported upstream
	Rating    string // Latest debt rating, RatingUnavailable when absent
	Hash      string
}

// GenerateHash creates a unique hash for duplicate detection.
func (b *Bond) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		b.ISIN,
		b.Code,
		b.Issuer,
		b.IssueDate)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// IssueYear returns the four-digit year portion of the issue date, or ""
// when the date is missing or malformed.
func (b *Bond) IssueYear() string {
	if len(b.IssueDate) < 4 {
		return ""
	}
	year := b.IssueDate[:4]
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}

// NormalizeRating maps the upstream placeholder values to RatingUnavailable.
func NormalizeRating(raw string) string {
	switch strings.TrimSpace(raw) {
	case "", "---":
		return RatingUnavailable
	default:
		return strings.TrimSpace(raw)
	}
}

// BondFilter holds the caller-chosen constraints applied during a fetch.
// Empty fields are sent as empty form values, which the upstream API treats
// as "no constraint".
type BondFilter struct {
	ISIN       string
	Code       string
	Issuer     string
	BondType   string // bond type code, e.g. "100001" for Treasury Bond
	CouponType string
	IssueYear  string
	Rating     string
}
