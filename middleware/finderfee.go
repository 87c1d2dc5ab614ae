package middleware

import (
	"encoding/json"
)

var finderFeeActions = map[string]bool{
	"select":  true,
	"init":    true,
	"confirm": true,
}

// FinderFeeValidator implements §4.8's finder_fee_validator: on
// select/init/confirm, requires the ONDC buyer-app finder fee type and
// amount be present on message.order.payment. It is a BPP-only concern
// run as step 5 of §4.6's handler contract — strictly after step 3
// (auth) and step 4 (envelope validation) — so it is consulted directly
// from a participant Server's action dispatch rather than mounted as an
// HTTP middleware in front of it, where it would run before the request
// is even known to be authentic.
type FinderFeeValidator struct {
	EnforceSettlement bool
}

// NewFinderFeeValidator builds a FinderFeeValidator.
func NewFinderFeeValidator(enforceSettlement bool) *FinderFeeValidator {
	return &FinderFeeValidator{EnforceSettlement: enforceSettlement}
}

// Check validates the finder-fee fields on an already-authenticated,
// already-envelope-validated request body for the given action. It
// returns "" when the request passes (including when enforcement is
// off, or the action isn't one of select/init/confirm), or a
// human-readable rejection reason otherwise.
func (f *FinderFeeValidator) Check(action string, body []byte) string {
	if !f.EnforceSettlement || !finderFeeActions[action] {
		return ""
	}

	_, payment := actionAndPayment(body)
	feeType, _ := payment["@ondc/org/buyer_app_finder_fee_type"].(string)
	_, hasAmount := payment["@ondc/org/buyer_app_finder_fee_amount"]
	if feeType == "" || !hasAmount {
		return "missing buyer app finder fee type/amount"
	}
	return ""
}

func actionAndPayment(body []byte) (action string, payment map[string]interface{}) {
	if len(body) == 0 {
		return "", nil
	}
	var env struct {
		Context struct {
			Action string `json:"action"`
		} `json:"context"`
		Message struct {
			Order struct {
				Payment map[string]interface{} `json:"payment"`
			} `json:"order"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return "", nil
	}
	return env.Context.Action, env.Message.Order.Payment
}
