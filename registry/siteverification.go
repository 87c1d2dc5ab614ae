package registry

import (
	"encoding/base64"
	"fmt"

	"github.com/beckn-mesh/network/auth"
)

// SiteVerifier signs the configured request_id for the
// `GET /ondc-site-verification.html` domain-verification page.
type SiteVerifier struct {
	requestID string
	signer    auth.Signer
}

// NewSiteVerifier builds a SiteVerifier over the configured request_id
// and this instance's signing key.
func NewSiteVerifier(requestID string, signer auth.Signer) *SiteVerifier {
	return &SiteVerifier{requestID: requestID, signer: signer}
}

// Page renders the verification HTML. Signing is applied to the raw
// request_id bytes directly, with no hashing.
func (v *SiteVerifier) Page() (string, error) {
	signature, err := v.signer.Sign([]byte(v.requestID))
	if err != nil {
		return "", fmt.Errorf("failed to sign site verification request_id: %w", err)
	}
	content := base64.StdEncoding.EncodeToString(signature)
	return fmt.Sprintf(
		"<!DOCTYPE html><html><head><meta name=\"ondc-site-verification\" content=\"%s\" /></head><body></body></html>",
		content,
	), nil
}
