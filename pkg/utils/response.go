package utils

import (
	"encoding/json"
	"net/http"

	"github.com/komekarch/site/backend/internal/logger"
)

// RespondJSON 以指定状态码输出 JSON。
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Warn().Err(err).Msg("failed to encode response")
	}
}

// RespondError 输出 {"error": message}。
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}
