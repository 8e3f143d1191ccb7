package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/splitfair/internal/client/gate"
)

// execIface is the command surface the REPL drives. App satisfies it; tests
// provide a stub.
type execIface interface {
	isLoggedIn() bool
	checkAccess(protected bool) gate.Decision
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Events(ctx context.Context) error
	NewEvent(ctx context.Context) error
	Split(ctx context.Context, args []string) error
}

var protected = map[string]bool{
	"whoami":   true,
	"logout":   true,
	"events":   true,
	"newevent": true,
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on end of input or on "exit"/"quit". Handler errors are
// reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "sf %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if d := a.checkAccess(protected[cmd]); !d.Allow {
			warnColor.Fprintf(out, "Please log in first (%s): use login or register\n", d.Redirect)
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, "Available commands: whoami, events, newevent, split, logout, exit")
			} else {
				fmt.Fprintln(out, "Available commands: register, login, split, exit")
			}
		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "whoami":
			_ = a.WhoAmI(ctx)
		case "events":
			_ = a.Events(ctx)
		case "newevent":
			_ = a.NewEvent(ctx)
		case "split":
			_ = a.Split(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
