// Package cli provides the interactive SplitFair command-line client.
//
// The REPL keeps one process-wide session: the cookie jar, the synchronizer
// token and the logged-in identity live as long as the program runs, and
// the identity is also restored from the local database on start.
//
// Commands:
//   - register, login, logout, whoami
//   - events, newevent
//   - split (local computation, no backend call)
//   - help, exit | quit
//
// whoami, logout, events and newevent are protected: they run only when
// someone is logged in. Start the REPL with App.Run, which blocks until the
// user exits.
package cli
