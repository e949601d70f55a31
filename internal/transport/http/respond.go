package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "keystone/pkg/domain-errors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// decodeJSON decodes a request body into dst, rejecting unknown fields so
// client typos surface as 400s instead of silently dropped input.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body")
	}
	return nil
}
