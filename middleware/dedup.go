package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/beckn-mesh/network/beckn"
	"github.com/beckn-mesh/network/internal/logger"
	"github.com/beckn-mesh/network/sharedstore"
)

// DuplicateDetector implements §4.3's duplicate detector: a message_id
// already seen on a non-callback action is rejected with a 400
// POLICY-ERROR NACK. Callback actions (`on_`-prefixed) legitimately
// reuse the originating message_id and are never checked. Fails open on
// shared-storage faults.
type DuplicateDetector struct {
	cache *sharedstore.Client
	log   logger.Logger
}

// NewDuplicateDetector builds a DuplicateDetector over the shared cache.
func NewDuplicateDetector(cache *sharedstore.Client, log logger.Logger) *DuplicateDetector {
	return &DuplicateDetector{cache: cache, log: log}
}

// Middleware returns the http.Handler wrapper.
func (d *DuplicateDetector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := RawBody(r.Context())

		messageID, action := messageContext(body)
		if messageID == "" || strings.HasPrefix(action, "on_") {
			next.ServeHTTP(w, r)
			return
		}

		alreadySeen, err := d.cache.CheckAndSetDedup(r.Context(), messageID, action)
		if err != nil {
			d.log.Warn("dedup check failing open", logger.String("message_id", messageID), logger.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if alreadySeen {
			beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypePolicy, beckn.CodeDuplicate, "duplicate message_id")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func messageContext(body []byte) (messageID, action string) {
	if len(body) == 0 {
		return "", ""
	}
	var env struct {
		Context struct {
			MessageID string `json:"message_id"`
			Action    string `json:"action"`
		} `json:"context"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return "", ""
	}
	return env.Context.MessageID, env.Context.Action
}
