package rabbitmq

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequeue_MarksError(t *testing.T) {
	base := errors.New("broker hiccup")
	err := Requeue(base)

	assert.True(t, IsRequeue(err))
	assert.ErrorIs(t, err, base)
}

func TestIsRequeue_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", Requeue(errors.New("transient")))
	assert.True(t, IsRequeue(err))
}

func TestIsRequeue_PlainErrors(t *testing.T) {
	assert.False(t, IsRequeue(errors.New("fatal")))
	assert.False(t, IsRequeue(nil))
	assert.False(t, IsRequeue(ErrMalformedPayload))
}
