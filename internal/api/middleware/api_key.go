package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hszk-dev/vidvault/internal/auth"
	"github.com/hszk-dev/vidvault/internal/infrastructure/metrics"
)

// APIKeyHeader carries the caller's credential.
const APIKeyHeader = "x-api-key"

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, Message: message})
}

// RequireAPIKey rejects requests whose x-api-key header the policy does not
// authorize. In open mode every request passes.
func RequireAPIKey(policy auth.Policy, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := policy.Decide(r.Header.Get(APIKeyHeader))
			metrics.AuthDecisionsTotal.WithLabelValues(authResult(decision)).Inc()

			if !decision.Authorized {
				logger.Warn("request unauthorized",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("reason", decision.Reason),
				)
				writeError(w, http.StatusUnauthorized, "unauthorized", decision.Reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authResult(d auth.Decision) string {
	switch {
	case d.Authorized:
		return metrics.AuthResultAuthorized
	case d.Reason == auth.ReasonMissingCredential:
		return metrics.AuthResultMissingCredential
	default:
		return metrics.AuthResultInvalidCredential
	}
}
