package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

// EntryKind tells which ledger record set an event belongs to.
type EntryKind string

const (
	KindExpense EntryKind = "expense"
	KindIncome  EntryKind = "income"
)

var ErrUnknownKind = errors.New("unknown entry kind")

// EntryRecordedMessage announces one persisted ledger entry. It carries the
// full entry so consumers never read the ledger back.
type EntryRecordedMessage struct {
	ID          uuid.UUID `json:"id"`
	Kind        EntryKind `json:"kind"`
	Date        string    `json:"date"`
	Concept     string    `json:"concept,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseRecorded builds the event for a persisted expense.
func NewExpenseRecorded(e core.ExpenseEntry) *EntryRecordedMessage {
	return &EntryRecordedMessage{
		ID:        uuid.New(),
		Kind:      KindExpense,
		Date:      e.Date.String(),
		Concept:   e.Concept,
		Amount:    e.Amount.String(),
		Category:  e.Category,
		Timestamp: time.Now().UTC(),
	}
}

// NewIncomeRecorded builds the event for a persisted income.
func NewIncomeRecorded(e core.IncomeEntry) *EntryRecordedMessage {
	return &EntryRecordedMessage{
		ID:          uuid.New(),
		Kind:        KindIncome,
		Date:        e.Date.String(),
		Description: e.Description,
		Amount:      e.Amount.String(),
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryRecordedFromJSON decodes a message and rejects unknown kinds.
func EntryRecordedFromJSON(data []byte) (*EntryRecordedMessage, error) {
	var msg EntryRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind != KindExpense && msg.Kind != KindIncome {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}
	return &msg, nil
}

// Expense rebuilds and validates the expense carried by the message.
func (m *EntryRecordedMessage) Expense() (core.ExpenseEntry, error) {
	if m.Kind != KindExpense {
		return core.ExpenseEntry{}, fmt.Errorf("message %s is %s, not expense", m.ID, m.Kind)
	}
	date, amount, err := m.dateAndAmount()
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	e := core.ExpenseEntry{Date: date, Concept: m.Concept, Amount: amount, Category: m.Category}
	return e, e.Validate()
}

// Income rebuilds and validates the income carried by the message.
func (m *EntryRecordedMessage) Income() (core.IncomeEntry, error) {
	if m.Kind != KindIncome {
		return core.IncomeEntry{}, fmt.Errorf("message %s is %s, not income", m.ID, m.Kind)
	}
	date, amount, err := m.dateAndAmount()
	if err != nil {
		return core.IncomeEntry{}, err
	}
	e := core.IncomeEntry{Date: date, Amount: amount, Description: m.Description}
	return e, e.Validate()
}

func (m *EntryRecordedMessage) dateAndAmount() (core.Date, decimal.Decimal, error) {
	date, err := core.ParseDate(m.Date)
	if err != nil {
		return core.Date{}, decimal.Zero, fmt.Errorf("message %s date %q: %w", m.ID, m.Date, err)
	}
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return core.Date{}, decimal.Zero, fmt.Errorf("message %s amount %q: %w", m.ID, m.Amount, core.ErrInvalidAmount)
	}
	return date, amount, nil
}
