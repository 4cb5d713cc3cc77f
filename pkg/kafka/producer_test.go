package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	msg, err := Message(Event{Key: "run-1", Value: map[string]int{"words": 4}})
	require.NoError(t, err)
	assert.Equal(t, "run-1", string(msg.Key))
	assert.JSONEq(t, `{"words":4}`, string(msg.Value))
}

func TestMessage_Unmarshalable(t *testing.T) {
	_, err := Message(Event{Key: "bad", Value: make(chan int)})
	assert.Error(t, err)
}
