package auth

import (
	"strconv"
	"strings"
)

// ParseAuthHeader parses a `Signature keyId="...", algorithm="...", ...`
// Authorization header value, tolerating arbitrary whitespace between
// parameters and any parameter order — grounded on the tolerant
// comma/param scanner style of core/rfc9421/parser.go's splitSignatures.
func ParseAuthHeader(header string) (*Params, error) {
	if header == "" {
		return nil, ErrMissingAuthHeader
	}

	rest := strings.TrimSpace(header)
	const scheme = "Signature "
	if !strings.HasPrefix(rest, scheme) {
		return nil, ErrInvalidScheme
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, scheme))

	fields := splitParams(rest)
	raw := make(map[string]string, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		value := strings.TrimSpace(kv[1])
		value = strings.Trim(value, `"`)
		raw[key] = value
	}

	for _, required := range []string{"keyid", "algorithm", "created", "expires", "signature"} {
		if raw[required] == "" {
			return nil, ErrMissingParam
		}
	}

	subscriberID, uniqueKeyID, domain, err := parseKeyID(raw["keyid"])
	if err != nil {
		return nil, err
	}

	created, err := strconv.ParseInt(raw["created"], 10, 64)
	if err != nil {
		return nil, ErrInvalidTimestamp
	}
	expires, err := strconv.ParseInt(raw["expires"], 10, 64)
	if err != nil {
		return nil, ErrInvalidTimestamp
	}

	return &Params{
		SubscriberID: subscriberID,
		UniqueKeyID:  uniqueKeyID,
		Domain:       domain,
		Algorithm:    raw["algorithm"],
		Created:      created,
		Expires:      expires,
		SignatureB64: raw["signature"],
		HeadersParam: raw["headers"],
	}, nil
}

// parseKeyID splits "<subscriber_id>|<unique_key_id>|ed25519" or the
// Gateway's domain-bound "<subscriber_id>|<unique_key_id>|<domain>|ed25519".
// subscriber_id is always the substring before the first "|".
func parseKeyID(keyID string) (subscriberID, uniqueKeyID, domain string, err error) {
	parts := strings.Split(keyID, "|")
	if len(parts) < 3 {
		return "", "", "", ErrInvalidKeyID
	}

	subscriberID = parts[0]
	uniqueKeyID = parts[1]
	if len(parts) == 4 {
		domain = parts[2]
	}
	if subscriberID == "" || uniqueKeyID == "" {
		return "", "", "", ErrInvalidKeyID
	}
	return subscriberID, uniqueKeyID, domain, nil
}

// splitParams splits a comma-separated parameter list while respecting
// quoted values, so a quoted value may itself contain commas.
func splitParams(s string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false

	for _, ch := range s {
		switch ch {
		case '"':
			inQuote = !inQuote
			current.WriteRune(ch)
		case ',':
			if inQuote {
				current.WriteRune(ch)
			} else {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
