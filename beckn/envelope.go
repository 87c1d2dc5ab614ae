// Package beckn defines the wire types shared by every protocol
// endpoint: the request context envelope and the Ack/Nack response
// shapes every handler replies with.
package beckn

import (
	"encoding/json"
	"fmt"
	"time"
)

// Context is the envelope every Beckn action and callback carries in
// message.context. Field names match the wire JSON exactly.
type Context struct {
	Domain        string `json:"domain"`
	Country       string `json:"country"`
	City          string `json:"city"`
	Action        string `json:"action"`
	CoreVersion   string `json:"core_version,omitempty"`
	BapID         string `json:"bap_id"`
	BapURI        string `json:"bap_uri"`
	BppID         string `json:"bpp_id,omitempty"`
	BppURI        string `json:"bpp_uri,omitempty"`
	TransactionID string `json:"transaction_id"`
	MessageID     string `json:"message_id"`
	Timestamp     string `json:"timestamp"`
	TTL           string `json:"ttl,omitempty"`
}

// Validate checks the fields §4.6 requires present and well-typed on
// every inbound action. It does not check that Action matches the
// endpoint path — callers do that with the route they dispatched on.
func (c *Context) Validate() error {
	if c == nil {
		return fmt.Errorf("missing context")
	}
	required := map[string]string{
		"action":         c.Action,
		"domain":         c.Domain,
		"country":        c.Country,
		"city":           c.City,
		"transaction_id": c.TransactionID,
		"message_id":     c.MessageID,
		"bap_id":         c.BapID,
		"bap_uri":        c.BapURI,
		"timestamp":      c.Timestamp,
	}
	for field, v := range required {
		if v == "" {
			return fmt.Errorf("context.%s is required", field)
		}
	}
	if _, err := time.Parse(time.RFC3339, c.Timestamp); err != nil {
		return fmt.Errorf("context.timestamp is not RFC3339: %w", err)
	}
	return nil
}

// Envelope wraps a raw action body enough to read its context without
// fully decoding message. Handlers re-parse the full body into their
// action-specific type once the envelope passes validation.
type Envelope struct {
	Context Context         `json:"context"`
	Message json.RawMessage `json:"message"`
}

// ParseEnvelope decodes just enough of a raw body to validate the
// context. body must be the raw bytes received — re-serializing a
// parsed-and-re-marshaled body changes the digest and breaks §4.2's
// signature.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return &env, nil
}
