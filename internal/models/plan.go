package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money денежная сумма NUMERIC(10,2).
// В JSON сериализуется числом, как и в клиентском API.
type Money struct {
	decimal.Decimal
}

// NewMoney создаёт Money из строки вида "9.99".
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Decimal: d}, nil
}

// MustMoney как NewMoney, но паникует на некорректном вводе. Для сидов и тестов.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MarshalJSON пишет сумму без кавычек.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON принимает как число, так и строку.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

// Plan тарифный план каталога. Каталог только читается.
type Plan struct {
	PlanID       string    `json:"plan_id"`
	Name         string    `json:"name"`
	Price        Money     `json:"price"`
	Features     []string  `json:"features"`
	DurationDays int       `json:"duration_days"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PlanRow строка таблицы plans с несериализованным списком фич.
type PlanRow struct {
	PlanID       string
	Name         string
	Price        Money
	Features     []byte
	DurationDays int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
