package domain

import (
	"fmt"
	"unicode"
)

// BankAccount is the payout destination for a withdrawal.
type BankAccount struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
}

// accountNumberLength is the NUBAN account number length used by Nigerian banks.
const accountNumberLength = 10

// Validate checks that the destination is well formed before any money moves.
func (b BankAccount) Validate() error {
	if b.BankName == "" {
		return fmt.Errorf("bank name is required")
	}
	if b.AccountName == "" {
		return fmt.Errorf("account name is required")
	}
	if len(b.AccountNumber) != accountNumberLength {
		return fmt.Errorf("account number must be %d digits", accountNumberLength)
	}
	for _, r := range b.AccountNumber {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("account number must contain only digits")
		}
	}
	return nil
}
