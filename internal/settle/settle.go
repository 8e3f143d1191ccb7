// Package settle works out who pays whom so that everyone in a group ends up
// having paid the same share.
package settle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNoPayments     = errors.New("no payments")
	ErrNegativeAmount = errors.New("negative amount")
)

// Amounts below half a cent are treated as settled.
var dust = decimal.New(5, -3)

type Payment struct {
	Name   string
	Amount decimal.Decimal
}

type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// String renders the transfer as "From -> To 12.34".
func (t Transfer) String() string {
	return fmt.Sprintf("%s -> %s %s", t.From, t.To, t.Amount.StringFixed(2))
}

type balance struct {
	name   string
	amount decimal.Decimal
}

// Divide matches creditors (paid more than the mean) against debtors (paid
// less) greedily, both in input order. Transfer amounts are rounded to cents.
func Divide(payments []Payment) ([]Transfer, error) {
	if len(payments) == 0 {
		return nil, ErrNoPayments
	}

	total := decimal.Zero
	for _, p := range payments {
		if p.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, p.Name)
		}
		total = total.Add(p.Amount)
	}
	mean := total.Div(decimal.NewFromInt(int64(len(payments))))

	var creditors, debtors []*balance
	for _, p := range payments {
		switch diff := p.Amount.Sub(mean); {
		case diff.GreaterThan(decimal.Zero):
			creditors = append(creditors, &balance{name: p.Name, amount: diff})
		case diff.LessThan(decimal.Zero):
			debtors = append(debtors, &balance{name: p.Name, amount: diff.Neg()})
		}
	}

	var out []Transfer
	for _, c := range creditors {
		for _, d := range debtors {
			if c.amount.LessThan(dust) {
				break
			}
			if d.amount.LessThan(dust) {
				continue
			}
			amount := decimal.Min(c.amount, d.amount)
			out = append(out, Transfer{From: d.name, To: c.name, Amount: amount.Round(2)})
			c.amount = c.amount.Sub(amount)
			d.amount = d.amount.Sub(amount)
		}
	}
	return out, nil
}

// ParsePayments reads "name=amount" pairs, e.g. "Alice=40".
func ParsePayments(args []string) ([]Payment, error) {
	out := make([]Payment, 0, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=amount, got %q", arg)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("amount for %s: %w", name, err)
		}
		out = append(out, Payment{Name: name, Amount: amount})
	}
	return out, nil
}
