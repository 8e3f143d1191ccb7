package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/splitfair/internal/client/models"
)

// Register prompts for the account fields and creates the account. The
// backend checks that both passwords match.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.password("Enter password")
	if err != nil {
		return err
	}
	confirmation, err := a.password("Repeat password")
	if err != nil {
		return err
	}

	id, err := a.authService.Register(ctx, models.Registration{
		Username:     username,
		Email:        email,
		Password:     password,
		Confirmation: confirmation,
	})
	if err != nil {
		return a.fail(ctx, "Registration", err)
	}
	okColor.Fprintf(a.out, "Welcome, %s!\n", id.Username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := a.password("Enter password")
	if err != nil {
		return err
	}

	id, err := a.authService.Login(ctx, username, password)
	if err != nil {
		return a.fail(ctx, "Login", err)
	}
	okColor.Fprintf(a.out, "Logged in as %s\n", id.Username)
	return nil
}

// Logout always ends the local session; a backend failure is reported
// after the fact.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	if err != nil {
		warnColor.Fprintf(a.out, "warning: the server was not notified: %s\n", describe(err))
		return err
	}
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	id, ok := a.authService.CurrentUser()
	if !ok {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s", id.Username)
	if id.Email != "" {
		fmt.Fprintf(a.out, " <%s>", id.Email)
	}
	if id.ID != 0 {
		fmt.Fprintf(a.out, " (id %d)", id.ID)
	}
	fmt.Fprintln(a.out)
	return nil
}
