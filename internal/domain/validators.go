package domain

import (
	"fmt"
	"regexp"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	ifscRegex     = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountRegex  = regexp.MustCompile(`^[0-9]{9,18}$`)
)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrValidation("email is required")
	}
	if !emailRegex.MatchString(email) {
		return ErrValidation("invalid email format")
	}
	return nil
}

// ValidateCurrency checks if a currency code is ISO 4217.
func ValidateCurrency(currency string) error {
	if !currencyRegex.MatchString(currency) {
		return ErrValidation("invalid currency code: " + currency)
	}
	return nil
}

// ValidatePositiveAmount checks that an amount is positive (minor units).
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrValidation(fmt.Sprintf("amount must be positive, got %d", amount))
	}
	return nil
}

// ValidateBankDetails checks a payout destination.
func ValidateBankDetails(b BankDetails) error {
	if b.AccountHolder == "" {
		return ErrValidation("account holder name is required")
	}
	if !accountRegex.MatchString(b.AccountNumber) {
		return ErrValidation("account number must be 9-18 digits")
	}
	if !ifscRegex.MatchString(b.IFSC) {
		return ErrValidation("invalid IFSC code")
	}
	return nil
}
