package valueobject

import (
	"fmt"
	"math"

	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
)

// PriceTolerance допускает расхождение суммы этапов с ценой найма на округлении.
const PriceTolerance = 0.01

type Money struct {
	Amount   float64
	Currency string
}

func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, apperror.Validation("сумма не может быть отрицательной")
	}
	if currency == "" {
		currency = "USD"
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewPrice требует строго положительную сумму.
func NewPrice(amount float64) (Money, error) {
	m, err := NewMoney(amount, "")
	if err != nil {
		return Money{}, err
	}
	if m.Amount == 0 {
		return Money{}, apperror.Validation("цена должна быть больше нуля")
	}
	return m, nil
}

func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// ApproxEqual сравнивает суммы с точностью PriceTolerance.
func (m Money) ApproxEqual(other Money) bool {
	return math.Abs(m.Amount-other.Amount) <= PriceTolerance+1e-9
}

func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.Amount)
}
