package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/splitfair/internal/settle"
)

// Split computes settlement transfers from "name=amount" arguments, or asks
// for them line by line when none are given.
func (a *App) Split(ctx context.Context, args []string) error {
	if len(args) == 0 {
		lines, err := GetLines(a.reader, "Enter payments as name=amount", a.out)
		if err != nil {
			return err
		}
		args = lines
	}

	payments, err := settle.ParsePayments(args)
	if err != nil {
		return a.fail(ctx, "Split", err)
	}
	transfers, err := settle.Divide(payments)
	if err != nil {
		return a.fail(ctx, "Split", err)
	}

	if len(transfers) == 0 {
		fmt.Fprintln(a.out, "Everyone is settled")
		return nil
	}
	for _, t := range transfers {
		fmt.Fprintln(a.out, t.String())
	}
	return nil
}
