package cli

import (
	"errors"

	"github.com/dmitrijs2005/gophjournal/internal/client/client"
	"github.com/dmitrijs2005/gophjournal/internal/client/services"
	"github.com/dmitrijs2005/gophjournal/internal/common"
)

// friendlyError turns an error into a message for the user. Sentinel errors
// get fixed wording; storage and cipher details stay in the log file.
func friendlyError(err error) string {
	var apiErr *client.APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrNotFound):
		return "No entry with that id."
	case errors.Is(err, common.ErrCorruptedEntry):
		return "This entry could not be read. It may be damaged."
	case errors.Is(err, common.ErrQuotaExceeded):
		return "Storage is full. Delete some entries, or export and clear the journal."
	case errors.Is(err, common.ErrInvalidMood):
		return "Mood must be between 1 and 5."
	case errors.Is(err, common.ErrCorruptedKey):
		return "The journal key is damaged; existing entries cannot be read."
	case errors.Is(err, common.ErrUninitialized):
		return "The journal is not ready: its key could not be loaded."
	case errors.Is(err, common.ErrStorage):
		return "The journal database could not be accessed. See the log file for details."
	case errors.Is(err, services.ErrInvalidUsername), errors.Is(err, services.ErrInvalidPIN),
		errors.Is(err, services.ErrTooShort), errors.Is(err, services.ErrNotEnoughEntries):
		return capitalize(err.Error()) + "."
	case errors.Is(err, client.ErrUnavailable):
		return "The server is unreachable. Your journal still works offline."
	case errors.As(err, &apiErr):
		if apiErr.Status == 401 {
			return "Not logged in: " + apiErr.Message
		}
		return "Server: " + apiErr.Message
	default:
		return err.Error()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
