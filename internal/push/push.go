package push

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a delivery failure.
type ErrorKind string

const (
	// KindInvalidToken means the provider reports the destination as
	// permanently gone (uninstalled app, revoked registration). The
	// device record should be removed.
	KindInvalidToken ErrorKind = "INVALID_TOKEN"
	// KindTransient covers everything retryable: rate limits, timeouts,
	// provider 5xx.
	KindTransient ErrorKind = "TRANSIENT"
)

// Error is a classified push delivery failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("push failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsInvalidToken reports whether err is a permanent-invalid-token failure.
func IsInvalidToken(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindInvalidToken
}

// Message is one notification addressed to a single device token. Data is
// the structured payload consumed by the client app; key names and value
// formatting are part of the app contract.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Gateway delivers notifications. Send returns nil on acceptance by the
// provider, or an *Error classifying the failure.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}
