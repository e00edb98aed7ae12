package api

import (
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
)

// writeJSON encodes v as the response body. Encoding failures are logged
// by the caller's middleware via the 500 status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// jsonError writes an error payload in the shape clients expect.
func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON request body into v with a size cap.
func decodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, 8<<20)
	defer body.Close()

	dec := sonic.ConfigDefault.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}
