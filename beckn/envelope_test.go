package beckn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validContext() Context {
	return Context{
		Domain:        "nic2004:52110",
		Country:       "IND",
		City:          "std:080",
		Action:        "search",
		BapID:         "bap.example.com",
		BapURI:        "https://bap.example.com",
		TransactionID: "t1",
		MessageID:     "m1",
		Timestamp:     "2026-01-01T00:00:00Z",
	}
}

func TestContext_ValidateOK(t *testing.T) {
	c := validContext()
	assert.NoError(t, c.Validate())
}

func TestContext_ValidateMissingField(t *testing.T) {
	c := validContext()
	c.TransactionID = ""
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction_id")
}

func TestContext_ValidateBadTimestamp(t *testing.T) {
	c := validContext()
	c.Timestamp = "not-a-time"
	assert.Error(t, c.Validate())
}

func TestParseEnvelope(t *testing.T) {
	body := []byte(`{"context":{"action":"search","domain":"nic2004:52110","country":"IND","city":"std:080","bap_id":"bap.example.com","bap_uri":"https://bap.example.com","transaction_id":"t1","message_id":"m1","timestamp":"2026-01-01T00:00:00Z"},"message":{"intent":{}}}`)
	env, err := ParseEnvelope(body)
	require.NoError(t, err)
	require.NoError(t, env.Context.Validate())
	assert.Equal(t, "search", env.Context.Action)
}

func TestParseEnvelope_InvalidJSON(t *testing.T) {
	_, err := ParseEnvelope([]byte("not json"))
	assert.Error(t, err)
}

func TestNewAckAndNack(t *testing.T) {
	ack := NewAck()
	assert.Equal(t, StatusACK, ack.Message.Ack.Status)

	nack := NewNack(ErrorTypePolicy, CodeRateLimit, "too many requests")
	assert.Equal(t, StatusNACK, nack.Message.Ack.Status)
	assert.Equal(t, CodeRateLimit, nack.Error.Code)
}
