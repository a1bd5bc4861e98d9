package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDecode(t *testing.T) {
	raw, err := json.Marshal(Event{Type: UserDeleted, Data: UserDeletedEvent{UserID: 7}})
	require.NoError(t, err)

	// Data comes back as map[string]any after a trip through the stream.
	var event Event
	require.NoError(t, json.Unmarshal(raw, &event))

	var payload UserDeletedEvent
	require.NoError(t, event.Decode(&payload))
	assert.Equal(t, int64(7), payload.UserID)
}

func TestEventDecodeRejectsWrongShape(t *testing.T) {
	event := Event{Type: UserDeleted, Data: map[string]any{"userId": "not-a-number"}}

	var payload UserDeletedEvent
	assert.Error(t, event.Decode(&payload))
}
