package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/splitfair/internal/client/client"
	"github.com/dmitrijs2005/splitfair/internal/client/csrf"
)

// describe turns a service error into a message for the terminal.
func describe(err error) string {
	var apiErr *client.Error
	switch {
	case errors.Is(err, csrf.ErrTokenUnavailable):
		return "could not obtain a security token from the server"
	case errors.Is(err, client.ErrUnauthorized):
		return "not authenticated (wrong credentials or expired session)"
	case errors.Is(err, client.ErrForbidden):
		return "request rejected by the server; the security token was reset, please retry"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.Is(err, client.ErrMalformedResponse):
		return "unexpected response from the server"
	case errors.As(err, &apiErr) && apiErr.Status != 0:
		if apiErr.Body != "" {
			return fmt.Sprintf("server answered %d: %s", apiErr.Status, apiErr.Body)
		}
		return fmt.Sprintf("server answered %d", apiErr.Status)
	}
	return err.Error()
}
