package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withCapturedBody(t *testing.T, body string, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	CaptureBody(h).ServeHTTP(rec, req)
	return rec
}

func TestNetworkPolicy_MissingSLAHeader(t *testing.T) {
	p := NewNetworkPolicy(true, false, []string{"X-SLA-Window"}, nil)
	rec := withCapturedBody(t, `{}`, p.Middleware(okHandler()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNetworkPolicy_MissingTags(t *testing.T) {
	p := NewNetworkPolicy(false, true, nil, []string{"search"})
	rec := withCapturedBody(t, `{"context":{"action":"search"},"message":{}}`, p.Middleware(okHandler()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNetworkPolicy_TagsPresentPasses(t *testing.T) {
	p := NewNetworkPolicy(false, true, nil, []string{"search"})
	rec := withCapturedBody(t, `{"context":{"action":"search"},"message":{"tags":[{"code":"x"}]}}`, p.Middleware(okHandler()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFinderFeeValidator_MissingFeeRejected(t *testing.T) {
	f := NewFinderFeeValidator(true)
	reason := f.Check("select", []byte(`{"context":{"action":"select"},"message":{"order":{"payment":{}}}}`))
	assert.NotEmpty(t, reason)
}

func TestFinderFeeValidator_PresentPasses(t *testing.T) {
	f := NewFinderFeeValidator(true)
	body := `{"context":{"action":"confirm"},"message":{"order":{"payment":{"@ondc/org/buyer_app_finder_fee_type":"percent","@ondc/org/buyer_app_finder_fee_amount":"1.5"}}}}`
	reason := f.Check("confirm", []byte(body))
	assert.Empty(t, reason)
}

func TestFinderFeeValidator_NonFeeActionIgnored(t *testing.T) {
	f := NewFinderFeeValidator(true)
	reason := f.Check("search", []byte(`{"context":{"action":"search"}}`))
	assert.Empty(t, reason)
}

func TestFinderFeeValidator_DisabledIgnored(t *testing.T) {
	f := NewFinderFeeValidator(false)
	reason := f.Check("select", []byte(`{"context":{"action":"select"},"message":{"order":{"payment":{}}}}`))
	assert.Empty(t, reason)
}

func TestIdentifyCaller_PrefersBapIDFromBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	body := []byte(`{"context":{"bap_id":"bap.example.com"}}`)
	assert.Equal(t, "bap.example.com", identifyCaller(req, body))
}

func TestIdentifyCaller_FallsBackToKeyIDPrefix(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	req.Header.Set("Authorization", `Signature keyId="bap.example.com|key1|ed25519", algorithm="ed25519"`)
	assert.Equal(t, "bap.example.com", identifyCaller(req, nil))
}

func TestIdentifyCaller_FallsBackToRemoteIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	req.RemoteAddr = "203.0.113.5:54321"
	assert.Equal(t, "ip:203.0.113.5", identifyCaller(req, nil))
}
