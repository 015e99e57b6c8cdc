package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncodesPayload(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	ev := New("APP-1", TypeDecisionMade, map[string]string{"outcome": "APPROVE"}, "req-1", now)

	assert.Equal(t, "APP-1", ev.CaseID)
	assert.Equal(t, TypeDecisionMade, ev.Type)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.Equal(t, time.UTC, ev.CreatedAt.Location())
	assert.Zero(t, ev.Version)

	var got map[string]string
	require.NoError(t, json.Unmarshal(ev.Payload, &got))
	assert.Equal(t, "APPROVE", got["outcome"])
}

func TestNewUnencodablePayload(t *testing.T) {
	ev := New("APP-1", TypeReviewPending, func() {}, "", time.Now())
	assert.Nil(t, ev.Payload)
}
