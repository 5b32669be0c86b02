package proxy

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
)

// maxBodyBytes bounds request bodies; recordings are sent inline as base64
const maxBodyBytes = 25 << 20

var errBodyTooLarge = errors.New("request body too large")

// field describes one expected request body member
type field struct {
	name     string
	required bool
	base64   bool
}

// decodeBody reads a JSON object and checks fields. Required fields must be
// non-empty strings; optional fields, when present and not null, must be
// strings. The returned map holds the string values that passed.
func decodeBody(w http.ResponseWriter, r *http.Request, fields ...field) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		raw = nil
	}

	values := make(map[string]string, len(fields))
	var invalid []string
	for _, f := range fields {
		v, present := raw[f.name]
		if !present || v == nil {
			if f.required {
				invalid = append(invalid, f.name)
			}
			continue
		}
		s, ok := v.(string)
		if !ok || (f.required && s == "") {
			invalid = append(invalid, f.name)
			continue
		}
		if f.base64 {
			if _, err := base64.StdEncoding.DecodeString(s); err != nil {
				invalid = append(invalid, f.name)
				continue
			}
		}
		values[f.name] = s
	}

	if len(invalid) > 0 {
		return nil, &ValidationError{Fields: invalid}
	}
	return values, nil
}

type dataResponse struct {
	Data any `json:"data"`
}

type pendingResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
