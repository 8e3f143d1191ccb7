// Package client is the request pipeline used to talk to the SplitFair
// backend.
//
// # Overview
//
// HTTPClient sends form-encoded requests through an ordered chain of hooks:
//
//  1. Pre-hooks run before dispatch. The built-in ones stamp an X-Request-ID
//     and, for mutating methods, attach the synchronizer token in both the
//     header and the form body.
//  2. Post-hooks run after every response. The built-in ones clear the token
//     on 403, clear the identity on 401, and turn other non-2xx statuses
//     into errors.
//
// Extra hooks are appended with WithPreHook and WithPostHook.
//
// The package also bootstraps the local SQLite database (InitDatabase,
// RunMigrations) that keeps the identity across restarts.
//
// # Error Handling
//
// Failures are reported as *Error values whose Kind is one of the sentinel
// errors: ErrUnavailable, ErrUnauthorized, ErrForbidden, ErrUnexpectedStatus,
// ErrMalformedResponse. Match them with errors.Is.
package client
