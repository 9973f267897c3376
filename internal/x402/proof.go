package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeError indicates a payment proof that is neither base64-encoded JSON
// nor raw JSON. It is surfaced to the caller as a 402 with details.
type DecodeError struct {
	Base64Err error
	JSONErr   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("payment proof is not base64 JSON (%v) nor raw JSON (%v)", e.Base64Err, e.JSONErr)
}

// DecodeProof decodes a payment proof submitted either as an X-PAYMENT style
// header or as a body field. Encodings are tried in order, first success wins:
// base64-encoded JSON, then raw JSON.
func DecodeProof(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)

	var b64Err error
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		var proof map[string]any
		if jsonErr := json.Unmarshal(decoded, &proof); jsonErr == nil {
			return proof, nil
		} else {
			b64Err = jsonErr
		}
	} else {
		b64Err = err
	}

	var proof map[string]any
	if err := json.Unmarshal([]byte(raw), &proof); err != nil {
		return nil, &DecodeError{Base64Err: b64Err, JSONErr: err}
	}
	return proof, nil
}
