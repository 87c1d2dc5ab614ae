package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// identifyCaller resolves the rate-limit/dedup identity for a request
// per §4.3's priority order: (a) context.bap_id from the captured body,
// (b) the subscriber_id prefix of the Authorization header's keyId,
// (c) the remote IP.
func identifyCaller(r *http.Request, body []byte) string {
	if id := bapIDFromBody(body); id != "" {
		return id
	}
	if id := subscriberIDFromAuthHeader(r.Header.Get("Authorization")); id != "" {
		return id
	}
	return "ip:" + remoteAddr(r)
}

func bapIDFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var env struct {
		Context struct {
			BapID string `json:"bap_id"`
		} `json:"context"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Context.BapID
}

func subscriberIDFromAuthHeader(header string) string {
	if header == "" {
		return ""
	}
	idx := strings.Index(header, `keyId="`)
	if idx == -1 {
		return ""
	}
	rest := header[idx+len(`keyId="`):]
	end := strings.IndexByte(rest, '"')
	if end == -1 {
		return ""
	}
	keyID := rest[:end]
	parts := strings.SplitN(keyID, "|", 2)
	return parts[0]
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
