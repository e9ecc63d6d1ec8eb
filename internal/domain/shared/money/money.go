package money

import (
	"fmt"
	"strings"

	"homio/internal/domain/shared/fault"
)

var (
	ErrInvalidCurrency  = fault.New(fault.ErrValidation, "money: currency must be a three letter ISO code")
	ErrCurrencyMismatch = fault.New(fault.ErrValidation, "money: currency mismatch")
)

// minorPerMajor is the subunit ratio for every currency the gateway accepts (paise, cents).
const minorPerMajor = 100

// Money is an amount in whole currency units. Listing prices are whole
// units, so totals never need fractions; the gateway gets MinorUnits.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func New(amount int64, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 || strings.Trim(currency, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") != "" {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Must is New for fixtures; it panics on a bad currency.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Multiply scales the amount, e.g. a nightly price by the number of nights.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// MinorUnits converts the amount into the gateway's smallest unit.
func (m Money) MinorUnits() int64 {
	return m.Amount * minorPerMajor
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
