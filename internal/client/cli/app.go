package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/dmitrijs2005/splitfair/internal/client/gate"
	"github.com/dmitrijs2005/splitfair/internal/client/services"
	"github.com/dmitrijs2005/splitfair/internal/logging"
)

var (
	errorColor = color.New(color.FgRed)
	warnColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
)

type App struct {
	authService  services.AuthService
	eventService services.EventService
	gate         *gate.Gate
	log          logging.Logger

	reader *bufio.Reader
	out    io.Writer
	// interactive means passwords are read from the terminal without echo.
	interactive bool
}

// NewApp builds the REPL over in and out. Passwords are read without echo
// only when in is a terminal.
func NewApp(auth services.AuthService, events services.EventService, g *gate.Gate, in io.Reader, out io.Writer, log logging.Logger) *App {
	if log == nil {
		log = logging.NewNop()
	}
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &App{
		authService:  auth,
		eventService: events,
		gate:         g,
		log:          log.With("component", "cli"),
		reader:       bufio.NewReader(in),
		out:          out,
		interactive:  interactive,
	}
}

// Run primes the token and serves commands until exit or end of input.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to SplitFair CLI (type 'help' for commands)")

	if err := a.authService.Init(ctx); err != nil {
		a.log.Warn(ctx, "token not primed", "error", err)
	}
	if id, ok := a.authService.CurrentUser(); ok {
		fmt.Fprintf(a.out, "Logged in as %s\n", id.Username)
	}

	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.gate.IsAuthenticated()
}

func (a *App) checkAccess(protected bool) gate.Decision {
	return a.gate.Check(protected)
}

func (a *App) status() string {
	if id, ok := a.authService.CurrentUser(); ok {
		return "(" + id.Username + ")"
	}
	return ""
}

func (a *App) password(prompt string) (string, error) {
	if !a.interactive {
		return GetSimpleText(a.reader, prompt, a.out)
	}
	pw, err := GetPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (a *App) fail(ctx context.Context, op string, err error) error {
	errorColor.Fprintf(a.out, "%s failed: %s\n", op, describe(err))
	a.log.Debug(ctx, op+" failed", "error", err)
	return err
}
