package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/client/services"
	"github.com/fatih/color"
)

type authFn func(ctx context.Context, username, pin string) (*services.User, error)

// Register creates a backend account; the backend logs it in right away.
func (a *App) Register(ctx context.Context, username string) error {
	return a.authenticate(ctx, username, "Registered and logged in", a.auth.Register)
}

// Login opens a backend session. The session cookie lives for the lifetime
// of the process, so one-shot commands log in again with --user.
func (a *App) Login(ctx context.Context, username string) error {
	return a.authenticate(ctx, username, "Logged in", a.auth.Login)
}

func (a *App) authenticate(ctx context.Context, username, done string, fn authFn) error {
	if username == "" {
		name, err := GetSimpleText(a.reader, "Enter username", a.out)
		if err != nil {
			return err
		}
		username = name
	}
	pin, err := GetPIN(a.out)
	if err != nil {
		return err
	}

	var u *services.User
	err = a.withSpinner("Contacting server...", func() error {
		var err error
		u, err = fn(ctx, username, pin)
		return err
	})
	if err != nil {
		return err
	}

	a.userName = u.Username
	color.New(color.FgGreen).Fprintf(a.out, "%s as %s\n", done, u.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.withSpinner("Logging out...", func() error { return a.auth.Logout(ctx) }); err != nil {
		return err
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if err := a.auth.Ping(ctx); err != nil {
		color.New(color.FgYellow).Fprintf(a.out, "Server:  unreachable (%s)\n", a.config.APIBaseURL)
		return nil
	}
	color.New(color.FgGreen).Fprintf(a.out, "Server:  online (%s)\n", a.config.APIBaseURL)

	st, err := a.auth.Status(ctx)
	if err != nil {
		return err
	}
	if st.Authenticated && st.User != nil {
		color.New(color.FgGreen).Fprintf(a.out, "Session: logged in as %s\n", st.User.Username)
	} else {
		color.New(color.FgYellow).Fprintln(a.out, "Session: not logged in")
	}
	return nil
}

// ensureLogin logs in as username when one is given.
func (a *App) ensureLogin(ctx context.Context, username string) error {
	if username == "" || username == a.userName {
		return nil
	}
	return a.Login(ctx, username)
}
