package client

import (
	"context"
	"encoding/json"
	"net/http"
)

type Client interface {
	PostJSON(ctx context.Context, path string, body any) (*Response, error)
	GetJSON(ctx context.Context, path string) (*Response, error)
}

// Response is a completed exchange with the backend.
type Response struct {
	OK     bool
	Status int
	JSON   json.RawMessage
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.JSON) == 0 {
		return nil
	}
	return json.Unmarshal(r.JSON, v)
}

// Err returns nil for an OK response and an *APIError otherwise. The message
// is the backend's "error" field, or the status text when there is none.
func (r *Response) Err() error {
	if r.OK {
		return nil
	}
	var body struct {
		Error string `json:"error"`
	}
	_ = r.Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(r.Status)
	}
	return &APIError{Status: r.Status, Message: msg}
}
