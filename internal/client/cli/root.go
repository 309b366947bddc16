package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dmitrijs2005/gophjournal/internal/buildinfo"
	"github.com/dmitrijs2005/gophjournal/internal/client/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const skipApp = "skip-app"

// NewRootCommand builds the journal command tree. The App is opened before
// any subcommand runs; the returned cleanup closes it.
func NewRootCommand(stdio IO) (*cobra.Command, func() error) {
	var app *App

	root := &cobra.Command{
		Use:           "journal",
		Short:         "Local-first encrypted journal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := config.BindFlags(root.PersistentFlags())

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipApp] != "" {
			return nil
		}
		cfg, err := flags.Load()
		if err != nil {
			return err
		}
		app, err = NewApp(cmd.Context(), cfg, stdio)
		return err
	}
	cleanup := func() error {
		if app == nil {
			return nil
		}
		return app.Close()
	}

	// the App exists by the time any RunE executes
	get := func() *App { return app }

	root.AddCommand(
		newAddCmd(get),
		newGetCmd(get),
		newListCmd(get),
		newSearchCmd(get),
		newEditCmd(get),
		newDeleteCmd(get),
		newClearCmd(get),
		newExportCmd(get),
		newImportCmd(get),
		newStatsCmd(get),
		newSettingsCmd(get),
		newAuthCmd(get),
		newAICmd(get),
		newShellCmd(get),
		newVersionCmd(),
	)
	return root, cleanup
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdio IO) int {
	root, cleanup := NewRootCommand(stdio)
	root.SetArgs(args)
	root.SetIn(stdio.In)
	root.SetOut(stdio.Out)
	root.SetErr(stdio.Err)

	err := root.ExecuteContext(ctx)
	if cerr := cleanup(); err == nil {
		err = cerr
	}
	if err != nil {
		color.New(color.FgRed).Fprintln(stdio.Err, "Error:", friendlyError(err))
		return 1
	}
	return 0
}

// StdIO binds the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr, Interactive: isTerminal(os.Stdout)}
}

type appFn func() *App

func newAddCmd(app appFn) *cobra.Command {
	var mood int
	cmd := &cobra.Command{
		Use:   "add [text...]",
		Short: "Write a new entry (reads the input when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Add(cmd.Context(), strings.Join(args, " "), mood)
		},
	}
	cmd.Flags().IntVarP(&mood, "mood", "m", 0, "mood from 1 (very low) to 5 (very good)")
	return cmd
}

func newGetCmd(app appFn) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Get(cmd.Context(), args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

type filterFlags struct {
	since, until string
	json         bool
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.since, "since", "", "only entries created at or after this date")
	cmd.Flags().StringVar(&f.until, "until", "", "only entries created at or before this date")
	cmd.Flags().BoolVar(&f.json, "json", false, "output as JSON")
}

func (f *filterFlags) filter() (listFilter, error) {
	lf := listFilter{JSON: f.json}
	if f.since != "" {
		t, err := dateparse.ParseLocal(f.since)
		if err != nil {
			return lf, fmt.Errorf("invalid --since date: %w", err)
		}
		lf.Since = t
	}
	if f.until != "" {
		t, err := dateparse.ParseLocal(f.until)
		if err != nil {
			return lf, fmt.Errorf("invalid --until date: %w", err)
		}
		lf.Until = endOfDayIfMidnight(t)
	}
	return lf, nil
}

// endOfDayIfMidnight makes a bare date such as 2024-03-01 include that day.
func endOfDayIfMidnight(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}

func newListCmd(app appFn) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List entries, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return app().List(cmd.Context(), f)
		},
	}
	ff.bind(cmd)
	return cmd
}

func newSearchCmd(app appFn) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "search <text...>",
		Short: "Find entries containing text (case-insensitive)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return app().Search(cmd.Context(), strings.Join(args, " "), f)
		},
	}
	ff.bind(cmd)
	return cmd
}

func newEditCmd(app appFn) *cobra.Command {
	var (
		content string
		mood    int
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace the text and/or mood of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c *string
			var m *int
			if cmd.Flags().Changed("text") {
				c = &content
			}
			if cmd.Flags().Changed("mood") {
				m = &mood
			}
			return app().Edit(cmd.Context(), args[0], c, m)
		},
	}
	cmd.Flags().StringVarP(&content, "text", "t", "", "new entry text")
	cmd.Flags().IntVarP(&mood, "mood", "m", 0, "new mood from 1 to 5")
	return cmd
}

func newDeleteCmd(app appFn) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Delete(cmd.Context(), args[0])
		},
	}
}

func newClearCmd(app appFn) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all entries (the key and settings stay)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Clear(cmd.Context(), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newExportCmd(app appFn) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file|->",
		Short: "Write a plaintext JSON backup, oldest entry first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Export(cmd.Context(), args[0])
		},
	}
}

func newImportCmd(app appFn) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Restore a backup written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Import(cmd.Context(), args[0])
		},
	}
}

func newStatsCmd(app appFn) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show journal statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Stats(cmd.Context())
		},
	}
}

func newSettingsCmd(app appFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write plain settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <name>",
			Short: "Print a setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app().SettingGet(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "set <name> <value>",
			Short: "Store a setting (JSON values are kept as JSON)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app().SettingSet(cmd.Context(), args[0], args[1])
			},
		},
	)
	return cmd
}

func newAuthCmd(app appFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Backend account and session",
	}
	userArg := func(args []string) string {
		if len(args) > 0 {
			return args[0]
		}
		return ""
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "register [username]",
			Short: "Create an account (username and a 4-6 digit PIN)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app().Register(cmd.Context(), userArg(args))
			},
		},
		&cobra.Command{
			Use:   "login [username]",
			Short: "Check credentials and open a session",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app().Login(cmd.Context(), userArg(args))
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Close the session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app().Logout(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show server reachability and session state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app().Status(cmd.Context())
			},
		},
	)
	return cmd
}

func newAICmd(app appFn) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "AI prompts and reflections (sends entry text to the backend)",
	}
	cmd.PersistentFlags().StringVarP(&user, "user", "u", "", "log in as this user first")

	var (
		mood int
		text string
	)
	prompt := &cobra.Command{
		Use:   "prompt",
		Short: "Suggest a writing prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app().ensureLogin(cmd.Context(), user); err != nil {
				return err
			}
			return app().Prompt(cmd.Context(), mood, text)
		},
	}
	prompt.Flags().IntVarP(&mood, "mood", "m", 0, "current mood from 1 to 5")
	prompt.Flags().StringVarP(&text, "text", "t", "", "what you have written so far")

	cmd.AddCommand(
		prompt,
		&cobra.Command{
			Use:   "analyze <id>",
			Short: "Reflect on one entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app().ensureLogin(cmd.Context(), user); err != nil {
					return err
				}
				return app().Analyze(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "patterns",
			Short: "Look for patterns across recent entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app().ensureLogin(cmd.Context(), user); err != nil {
					return err
				}
				return app().Patterns(cmd.Context())
			},
		},
	)
	return cmd
}

func newShellCmd(app appFn) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive journal shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			fmt.Fprintln(a.out, "Journal shell (type 'help' for commands)")
			runREPL(cmd.Context(), a, a.getStatus, a.reader, a.out)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			return err
		},
	}
}
