package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Add(ctx context.Context, content string, mood int) error
	Get(ctx context.Context, id string, asJSON bool) error
	List(ctx context.Context, f listFilter) error
	Search(ctx context.Context, query string, f listFilter) error
	Edit(ctx context.Context, id string, content *string, mood *int) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) error
	Login(ctx context.Context, username string) error
	Logout(ctx context.Context) error
	Prompt(ctx context.Context, mood int, currentText string) error
	Analyze(ctx context.Context, id string) error
	Patterns(ctx context.Context) error
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

// runREPL starts a simple read–eval–print loop over the journal.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Prompts for multi-line text read from the
// same reader. Unknown commands are reported back to the user. The loop exits
// on EOF or when the user types "exit" or "quit".
//
// Commands:
//
//	add [mood]           write an entry (ends on an empty line)
//	(l)ist               list entries, newest first
//	get <id>             show an entry
//	search <text>        find entries containing text
//	edit <id>            replace text and/or mood
//	delete <id>          delete an entry
//	stats                journal statistics
//	login [user]         log in to the backend
//	logout               log out
//	prompt [mood]        ask for a writing prompt (logged in)
//	analyze <id>         reflect on an entry (logged in)
//	patterns             look for patterns (logged in)
//	exit | quit          leave the shell
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		printlnFn(fmt.Sprintf("journal%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, (l)ist, get, search, edit, delete, stats, prompt, analyze, patterns, logout, exit")
			} else {
				printlnFn("Available commands: add, (l)ist, get, search, edit, delete, stats, login, exit")
			}

		case "add":
			mood, err := optionalMood(args)
			if err != nil {
				cmdErr = err
				break
			}
			cmdErr = a.Add(ctx, "", mood)

		case "l", "list":
			cmdErr = a.List(ctx, listFilter{})

		case "get", "show":
			if len(args) == 0 {
				printlnFn("Usage: get <id>")
				continue
			}
			cmdErr = a.Get(ctx, args[0], false)

		case "search":
			if len(args) == 0 {
				printlnFn("Usage: search <text>")
				continue
			}
			cmdErr = a.Search(ctx, strings.Join(args, " "), listFilter{})

		case "edit":
			if len(args) == 0 {
				printlnFn("Usage: edit <id>")
				continue
			}
			cmdErr = editInteractive(ctx, a, args[0], reader, w)

		case "delete", "rm":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			cmdErr = a.Delete(ctx, args[0])

		case "stats":
			cmdErr = a.Stats(ctx)

		case "login":
			user := ""
			if len(args) > 0 {
				user = args[0]
			}
			cmdErr = a.Login(ctx, user)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "prompt", "analyze", "patterns":
			if !a.isLoggedIn() {
				printlnFn("Log in first: login <user>")
				continue
			}
			cmdErr = runAI(ctx, a, cmd, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", friendlyError(cmdErr))
		}
	}
}

func runAI(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "prompt":
		mood, err := optionalMood(args)
		if err != nil {
			return err
		}
		return a.Prompt(ctx, mood, "")
	case "analyze":
		if len(args) == 0 {
			printlnFn("Usage: analyze <id>")
			return nil
		}
		return a.Analyze(ctx, args[0])
	default:
		return a.Patterns(ctx)
	}
}

func editInteractive(ctx context.Context, a execIface, id string, reader *bufio.Reader, w io.Writer) error {
	text, err := GetMultiline(reader, "New text (leave empty to keep the current text)", w)
	if err != nil {
		return err
	}
	moodText, err := GetSimpleText(reader, "New mood 1-5 (leave empty to keep)", w)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	var content *string
	if text != "" {
		content = &text
	}
	var mood *int
	if moodText != "" {
		m, err := parseMood(moodText)
		if err != nil {
			return err
		}
		mood = &m
	}
	return a.Edit(ctx, id, content, mood)
}

func optionalMood(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	return parseMood(args[0])
}

func parseMood(s string) (int, error) {
	m, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || m < 1 || m > 5 {
		return 0, common.ErrInvalidMood
	}
	return m, nil
}
