// Package cli implements the cryfox-vault command line front end.
//
// One-shot commands (add, list, get, search, update, delete, copy) prompt for
// the master password, run, and exit. The shell command unlocks once and
// starts an interactive read-eval-print loop with the same operations.
//
// Master passwords and entry passwords are read without echo when stdin is
// a terminal, and from stdin lines otherwise, so the tool can be scripted.
//
// The account command group talks to the hosted identity service and keeps
// its session in session.json next to the vault.
package cli
