package middleware

import (
	"encoding/json"
	"net/http"
)

// respondWithError writes the standard error envelope
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": code,
		"message":    message,
		"success":    false,
		"data":       nil,
		"error":      http.StatusText(code),
	})
}
