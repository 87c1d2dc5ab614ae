package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/beckn-mesh/network/beckn"
)

// NetworkPolicy implements §4.3's third pipeline stage: structural
// compliance checks that don't need shared state, so it never fails
// open — a misconfigured policy is a caller-visible rejection, not an
// infrastructure fault.
type NetworkPolicy struct {
	EnforceSLA      bool
	EnforceTags     bool
	RequiredHeaders []string
	TaggedActions   map[string]bool
}

// NewNetworkPolicy builds a NetworkPolicy. requiredHeaders is the SLA
// header set checked when enforceSLA is true; taggedActions names the
// ONDC action set that must carry message.tags when enforceTags is true.
func NewNetworkPolicy(enforceSLA, enforceTags bool, requiredHeaders []string, taggedActions []string) *NetworkPolicy {
	tagged := make(map[string]bool, len(taggedActions))
	for _, a := range taggedActions {
		tagged[a] = true
	}
	return &NetworkPolicy{
		EnforceSLA:      enforceSLA,
		EnforceTags:     enforceTags,
		RequiredHeaders: requiredHeaders,
		TaggedActions:   tagged,
	}
}

// Middleware returns the http.Handler wrapper.
func (p *NetworkPolicy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.EnforceSLA {
			for _, h := range p.RequiredHeaders {
				if r.Header.Get(h) == "" {
					beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypePolicy, beckn.CodePolicy,
						"missing required SLA header: "+h)
					return
				}
			}
		}

		if p.EnforceTags {
			body, _ := RawBody(r.Context())
			action, hasTags := actionAndTagPresence(body)
			if p.TaggedActions[action] && !hasTags {
				beckn.WriteNack(w, http.StatusBadRequest, beckn.ErrorTypePolicy, beckn.CodePolicy,
					"missing required tags for action "+action)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func actionAndTagPresence(body []byte) (action string, hasTags bool) {
	if len(body) == 0 {
		return "", false
	}
	var env struct {
		Context struct {
			Action string `json:"action"`
		} `json:"context"`
		Message struct {
			Tags json.RawMessage `json:"tags"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return "", false
	}
	return env.Context.Action, len(env.Message.Tags) > 0
}
