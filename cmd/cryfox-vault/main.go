// Command cryfox-vault is a local credential vault guarded by a master
// password.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cryfox/vaultcore/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
