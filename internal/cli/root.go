package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/cryfox/vaultcore/internal/config"
	"github.com/cryfox/vaultcore/internal/logging"
	"github.com/spf13/cobra"
)

// skipEngine marks commands that never touch the vault.
const skipEngine = "skip-engine"

type rootState struct {
	cfgFile string
	app     *App
}

// run wraps a handler so the engine is closed however it returns.
func (st *rootState) run(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer st.app.Close()
		return fn(cmd.Context(), st.app, args)
	}
}

// unlocked is run for handlers that need an open session.
func (st *rootState) unlocked(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return st.run(func(ctx context.Context, a *App, args []string) error {
		if err := a.Unlock(ctx); err != nil {
			return err
		}
		defer a.vault.SignOut()
		return fn(ctx, a, args)
	})
}

func (st *rootState) preRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cmd.Flags(), st.cfgFile)
	if err != nil {
		return err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	var vault vaultEngine
	if _, skip := cmd.Annotations[skipEngine]; !skip {
		if vault, err = openEngine(cmd.Context(), cfg, log); err != nil {
			return err
		}
	}
	st.app = NewApp(cfg, log, vault, cmd.InOrStdin(), cmd.OutOrStdout())
	return nil
}

// NewRootCmd builds the cryfox-vault command tree. Without a subcommand it
// starts the interactive shell.
func NewRootCmd() *cobra.Command {
	st := &rootState{}

	root := &cobra.Command{
		Use:               "cryfox-vault",
		Short:             "Local credential vault protected by a master password",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: st.preRun,
		RunE: st.run(func(ctx context.Context, a *App, _ []string) error {
			return a.Shell(ctx)
		}),
	}
	root.PersistentFlags().StringVar(&st.cfgFile, "config", "", "config file (default ~/.config/cryfox/config.json)")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "setup",
			Short: "Create or replace the master password",
			Args:  cobra.NoArgs,
			RunE: st.run(func(ctx context.Context, a *App, _ []string) error {
				return a.Setup(ctx)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the vault is set up and where it lives",
			Args:  cobra.NoArgs,
			RunE: st.run(func(ctx context.Context, a *App, _ []string) error {
				return a.Status(ctx)
			}),
		},
		&cobra.Command{
			Use:   "shell",
			Short: "Unlock once and run commands interactively",
			Args:  cobra.NoArgs,
			RunE: st.run(func(ctx context.Context, a *App, _ []string) error {
				return a.Shell(ctx)
			}),
		},
		newAddCmd(st),
		newListCmd(st),
		newGetCmd(st),
		newSearchCmd(st),
		newUpdateCmd(st),
		newDeleteCmd(st),
		&cobra.Command{
			Use:   "copy <id>",
			Short: "Copy an entry's password to the clipboard",
			Args:  cobra.ExactArgs(1),
			RunE: st.unlocked(func(ctx context.Context, a *App, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return a.Copy(ctx, id)
			}),
		},
		newAccountCmd(st),
	)
	return root
}

func newAddCmd(st *rootState) *cobra.Command {
	var url, username string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a credential",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = st.unlocked(func(ctx context.Context, a *App, _ []string) error {
		return a.Add(ctx, url, username, !cmd.Flags().Changed("username"))
	})
	cmd.Flags().StringVar(&url, "url", "", "site url")
	cmd.Flags().StringVar(&username, "username", "", "login name")
	return cmd
}

func newListCmd(st *rootState) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List credentials",
		Args:  cobra.NoArgs,
		RunE: st.unlocked(func(ctx context.Context, a *App, _ []string) error {
			return a.List(ctx, show)
		}),
	}
	cmd.Flags().BoolVarP(&show, "show", "s", false, "print passwords in clear")
	return cmd
}

func newGetCmd(st *rootState) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one credential",
		Args:  cobra.ExactArgs(1),
		RunE: st.unlocked(func(ctx context.Context, a *App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.Get(ctx, id, show)
		}),
	}
	cmd.Flags().BoolVarP(&show, "show", "s", false, "print the password in clear")
	return cmd
}

func newSearchCmd(st *rootState) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find credentials by url or username",
		Args:  cobra.MinimumNArgs(1),
		RunE: st.unlocked(func(ctx context.Context, a *App, args []string) error {
			return a.Search(ctx, strings.Join(args, " "), show)
		}),
	}
	cmd.Flags().BoolVarP(&show, "show", "s", false, "print passwords in clear")
	return cmd
}

func newUpdateCmd(st *rootState) *cobra.Command {
	var url, username string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a credential",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = st.unlocked(func(ctx context.Context, a *App, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var u, n *string
		if cmd.Flags().Changed("url") {
			u = &url
		}
		if cmd.Flags().Changed("username") {
			n = &username
		}
		return a.Update(ctx, id, u, n)
	})
	cmd.Flags().StringVar(&url, "url", "", "new site url")
	cmd.Flags().StringVar(&username, "username", "", "new login name")
	return cmd
}

func newDeleteCmd(st *rootState) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Remove credentials",
		Args:  cobra.MinimumNArgs(1),
		RunE: st.unlocked(func(ctx context.Context, a *App, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.Delete(ctx, ids, yes)
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newAccountCmd(st *rootState) *cobra.Command {
	noEngine := map[string]string{skipEngine: ""}
	sub := func(use, short string, fn func(*App, context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:         use,
			Short:       short,
			Args:        cobra.NoArgs,
			Annotations: noEngine,
			RunE: st.run(func(ctx context.Context, a *App, _ []string) error {
				return fn(a, ctx)
			}),
		}
	}

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the hosted identity account",
	}
	cmd.AddCommand(
		sub("signup", "Create an account", (*App).SignUp),
		sub("signin", "Sign in and store the session", (*App).SignIn),
		sub("signout", "End the stored session", (*App).SignOutAccount),
		sub("refresh", "Renew the stored session", (*App).Refresh),
		sub("reset", "Request a password reset email", (*App).ResetPassword),
		sub("status", "Show the stored session", (*App).AccountStatus),
	)
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), errStyle.Render("Error: "+describeErr(err)))
		return 1
	}
	return 0
}
