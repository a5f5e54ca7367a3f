package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-support-backend/internal/agent"
)

func TestChatResponseKeepsSuccessKeyWhenFalse(t *testing.T) {
	b, err := json.Marshal(ChatResponse{
		SessionID: "s1",
		Type:      agent.RespActionResult,
		Text:      "The email could not be delivered.",
		Success:   false,
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	// Clients distinguish a failed action from an informational reply by this
	// key, so it must be on the wire even when false.
	v, ok := raw["success"]
	require.True(t, ok)
	assert.Equal(t, false, v)
}

func TestAgentResponseKeepsSuccessKeyWhenFalse(t *testing.T) {
	b, err := json.Marshal(agent.Response{Type: agent.RespActionResult, Success: false})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"success":false`)
}
