package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the shell drives. *App satisfies it.
type execIface interface {
	isUnlocked() bool
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Add(ctx context.Context, url, username string, askUsername bool) error
	List(ctx context.Context, show bool) error
	Get(ctx context.Context, id int64, show bool) error
	Search(ctx context.Context, query string, show bool) error
	Update(ctx context.Context, id int64, url, username *string) error
	Delete(ctx context.Context, ids []int64, force bool) error
	Copy(ctx context.Context, id int64) error
}

const (
	lockedHelp   = "Available commands: unlock, help, exit"
	unlockedHelp = "Available commands: list [--show], get <id> [--show], search <text> [--show], add [url] [username], update <id>, delete <id>..., copy <id>, lock, exit"
)

// splitShow removes a --show or -s flag from args.
func splitShow(args []string) ([]string, bool) {
	out := args[:0:0]
	show := false
	for _, a := range args {
		if a == "--show" || a == "-s" {
			show = true
			continue
		}
		out = append(out, a)
	}
	return out, show
}

// runREPL reads commands from in until EOF, exit or quit. Handlers prompt on
// the same reader, so lines are taken one at a time. Errors from handlers are
// printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cryfox (%s) > ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		err = nil
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args, show := splitShow(parts[1:])

		if ctx.Err() != nil {
			return
		}

		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn(unlockedHelp)
			} else {
				printlnFn(lockedHelp)
			}
		case "unlock":
			err = a.Unlock(ctx)
		case "lock":
			err = a.Lock(ctx)
		case "list", "l":
			err = a.List(ctx, show)
		case "add":
			switch len(args) {
			case 0:
				err = a.Add(ctx, "", "", true)
			case 1:
				err = a.Add(ctx, args[0], "", true)
			default:
				err = a.Add(ctx, args[0], args[1], false)
			}
		case "search":
			if len(args) == 0 {
				printlnFn("Usage: search <text>")
				continue
			}
			err = a.Search(ctx, strings.Join(args, " "), show)
		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>...")
				continue
			}
			var ids []int64
			if ids, err = parseIDs(args); err != nil {
				break
			}
			err = a.Delete(ctx, ids, false)
		case "get", "update", "copy":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			var id int64
			if id, err = parseID(args[0]); err != nil {
				break
			}
			switch cmd {
			case "get":
				err = a.Get(ctx, id, show)
			case "update":
				err = a.Update(ctx, id, nil, nil)
			case "copy":
				err = a.Copy(ctx, id)
			}
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(errStyle.Render("Error: " + describeErr(err)))
		}
	}
}

// Shell unlocks the vault and runs the interactive loop on the app's input.
func (a *App) Shell(ctx context.Context) error {
	printlnFn("cryfox vault shell (type 'help' for commands)")
	if err := a.Unlock(ctx); err != nil {
		printlnFn(errStyle.Render("Error: " + describeErr(err)))
	}
	defer a.vault.SignOut()

	runREPL(ctx, a, func() string { return a.vault.State().String() }, a.in)
	return nil
}
