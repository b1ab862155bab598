package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2013, time.May, 5, 14, 30, 0, 0, time.UTC)
	event := ProductEvent{
		Status:      "published",
		Date:        "2013-05-05",
		WindowStart: "2013-05-03",
		WindowEnd:   "2013-05-05",
		Images: []ProductImage{
			{Locale: "en", Size: "full", File: "turtlewatch_en_full_latest.png"},
		},
		ProducedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("2013-05-05"), msg.Key)
	assert.Contains(t, string(msg.Value), `"status":"published"`)
	assert.Contains(t, string(msg.Value), `"window_start":"2013-05-03"`)
	assert.Contains(t, string(msg.Value), `"turtlewatch_en_full_latest.png"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "status", msg.Headers[0].Key)
	assert.Equal(t, []byte("published"), msg.Headers[0].Value)
	assert.Equal(t, "produced_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_Failure(t *testing.T) {
	event := ProductEvent{
		Status:     "failed",
		Date:       "2013-05-05",
		Error:      "no matching input file",
		ProducedAt: time.Now().UTC(),
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"error":"no matching input file"`)
	assert.NotContains(t, string(msg.Value), "window_start")
}
