package domain

import "fmt"

// All money in the core is int64 minor units (paise). Rates are expressed
// in basis points so no floating point ever touches balance math.

// DefaultSellerRateBps is the seller's share of a sale: 85.00%.
const DefaultSellerRateBps = 8500

// bpsDenominator is the basis-point scale (100% == 10000 bps).
const bpsDenominator = 10000

// Split divides a sale amount between seller and platform shares such that
// sellerShare + platformShare == amount exactly. The seller share is rounded
// down and the remainder goes to the platform, so a seller is never
// over-credited by rounding.
func Split(amount int64, sellerRateBps int) (sellerShare, platformShare int64) {
	if amount <= 0 {
		return 0, 0
	}
	sellerShare = amount * int64(sellerRateBps) / bpsDenominator
	platformShare = amount - sellerShare
	return sellerShare, platformShare
}

// PercentOf returns rateBps of amount, rounded down. Used for the
// negotiation floor (70% of list price).
func PercentOf(amount int64, rateBps int) int64 {
	if amount <= 0 {
		return 0
	}
	return amount * int64(rateBps) / bpsDenominator
}

// FormatRupees renders minor units as a display string. Presentation only,
// never used in balance arithmetic.
func FormatRupees(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, minor/100, minor%100)
}
