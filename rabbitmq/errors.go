package rabbitmq

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionUnavailable is returned when the broker cannot be reached
	// after the configured number of connect attempts.
	ErrConnectionUnavailable = errors.New("rabbitmq: connection unavailable")

	// ErrChannelClosed is returned when the broker shut down a channel that
	// a publisher or consumer was using.
	ErrChannelClosed = errors.New("rabbitmq: channel closed")

	// ErrConfirmTimeout is returned when the broker did not confirm a publish
	// within the configured confirmation timeout. The caller must not assume
	// the message was delivered.
	ErrConfirmTimeout = errors.New("rabbitmq: broker confirmation timed out")

	// ErrPublishRejected is returned when the broker explicitly nacked a
	// published message.
	ErrPublishRejected = errors.New("rabbitmq: broker rejected publish")

	// ErrMalformedPayload marks a message body that could not be decoded.
	// The consumer rejects such messages without requeue so they land on the
	// dead-letter exchange.
	ErrMalformedPayload = errors.New("rabbitmq: malformed payload")
)

// requeueError wraps a handler error that should be retried by redelivery
// instead of being dead-lettered.
type requeueError struct {
	err error
}

func (e *requeueError) Error() string {
	return fmt.Sprintf("requeue: %v", e.err)
}

func (e *requeueError) Unwrap() error {
	return e.err
}

// Requeue marks err as transient. A consumer receiving a Requeue-classified
// error nacks the delivery back onto the queue instead of dead-lettering it.
func Requeue(err error) error {
	return &requeueError{err: err}
}

// IsRequeue reports whether err was marked with Requeue.
func IsRequeue(err error) bool {
	var re *requeueError
	return errors.As(err, &re)
}
