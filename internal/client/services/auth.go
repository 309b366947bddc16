package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/client/client"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
)

var (
	ErrInvalidUsername = errors.New("username must be 3-20 characters: letters, digits, _ or -")
	ErrInvalidPIN      = errors.New("PIN must be 4-6 digits")
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
	pinRe      = regexp.MustCompile(`^[0-9]{4,6}$`)
)

// User is the account the backend session belongs to.
type User struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
}

// AuthStatus is the answer of the status endpoint.
type AuthStatus struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// AuthService manages the backend session used by the AI endpoints.
// The session lives in the network client's cookie jar.
type AuthService interface {
	Register(ctx context.Context, username, pin string) (*User, error)
	Login(ctx context.Context, username, pin string) (*User, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (*AuthStatus, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	log    logging.Logger
}

func NewAuthService(c client.Client, log logging.Logger) AuthService {
	if log == nil {
		log = logging.NewNop()
	}
	return &authService{client: c, log: log}
}

func validateCredentials(username, pin string) error {
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	if !pinRe.MatchString(pin) {
		return ErrInvalidPIN
	}
	return nil
}

func (a *authService) Register(ctx context.Context, username, pin string) (*User, error) {
	return a.credentials(ctx, "/api/auth/register", username, pin)
}

func (a *authService) Login(ctx context.Context, username, pin string) (*User, error) {
	return a.credentials(ctx, "/api/auth/login", username, pin)
}

func (a *authService) credentials(ctx context.Context, path, username, pin string) (*User, error) {
	username, pin = strings.TrimSpace(username), strings.TrimSpace(pin)
	if err := validateCredentials(username, pin); err != nil {
		return nil, err
	}

	resp, err := a.client.PostJSON(ctx, path, map[string]string{"username": username, "pin": pin})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var body struct {
		User User `json:"user"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	a.log.Info(ctx, "authenticated", "username", body.User.Username)
	return &body.User, nil
}

func (a *authService) Logout(ctx context.Context) error {
	resp, err := a.client.PostJSON(ctx, "/api/auth/logout", struct{}{})
	if err != nil {
		return err
	}
	return resp.Err()
}

func (a *authService) Status(ctx context.Context) (*AuthStatus, error) {
	resp, err := a.client.GetJSON(ctx, "/api/auth/status")
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var st AuthStatus
	if err := resp.Decode(&st); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &st, nil
}

// Ping checks backend liveness via the health endpoint.
func (a *authService) Ping(ctx context.Context) error {
	resp, err := a.client.GetJSON(ctx, "/health")
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("%w: %v", client.ErrUnavailable, resp.Err())
	}
	return nil
}
