package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/entrastudio/token-studio/internal/azurecli"
	apperrors "github.com/entrastudio/token-studio/internal/errors"
	"github.com/entrastudio/token-studio/internal/models"
	"github.com/entrastudio/token-studio/internal/transport"
)

// errorPayload is the JSON error body. The web transport parses this
// shape back into its normalized error.
type errorPayload struct {
	Error         string `json:"error"`
	Code          string `json:"code,omitempty"`
	Details       string `json:"details,omitempty"`
	SetupRequired bool   `json:"setupRequired,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps known failures onto status codes and the error
// payload. Azure CLI environment problems surface as setup guidance
// rather than opaque 500s.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var cliErr *azurecli.CLIError
	if errors.As(err, &cliErr) {
		status := http.StatusBadGateway
		if cliErr.Code == azurecli.CodeNotLoggedIn {
			status = http.StatusUnauthorized
		}

		writeJSON(w, status, errorPayload{
			Error:         cliErr.Message,
			Code:          cliErr.Code,
			Details:       cliErr.Details,
			SetupRequired: cliErr.Code == azurecli.CodeNotFound || cliErr.Code == azurecli.CodeNotLoggedIn,
		})

		return
	}

	if errors.Is(err, apperrors.ErrNotConfigured) {
		writeJSON(w, http.StatusUnprocessableEntity, errorPayload{
			Error:         "no credential source is configured",
			Code:          "not_configured",
			SetupRequired: true,
		})

		return
	}

	s.logger.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	writeJSON(w, http.StatusInternalServerError, errorPayload{Error: err.Error()})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorPayload{Error: msg, Code: "bad_request"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.creds.Snapshot())
}

// appTokenRequest is the issuance request body. Scope wins over
// Resource when both are present; Resource alone is normalized.
type appTokenRequest struct {
	Config   models.AppConfig `json:"config"`
	Resource string           `json:"resource,omitempty"`
	Scope    string           `json:"scope,omitempty"`
}

func (s *Server) handleAppToken(w http.ResponseWriter, r *http.Request) {
	var req appTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid request body")

		return
	}

	scope := req.Scope
	if scope == "" {
		scope = transport.NormalizeScope(req.Resource)
	}

	if req.Config.TenantID == "" || req.Config.ClientID == "" || scope == "" {
		s.writeBadRequest(w, "tenantId, clientId and a resource or scope are required")

		return
	}

	token, err := s.issuer.Acquire(r.Context(), req.Config, []string{scope})
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var kv models.KeyVaultConfig
	if err := json.NewDecoder(r.Body).Decode(&kv); err != nil {
		s.writeBadRequest(w, "invalid request body")

		return
	}

	writeJSON(w, http.StatusOK, s.creds.Validate(r.Context(), kv))
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.azure.Subscriptions(r.Context())
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	apps, err := s.azure.Apps(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleKeyVaults(w http.ResponseWriter, r *http.Request) {
	vaults, err := s.azure.KeyVaults(r.Context(), r.URL.Query().Get("subscriptionId"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, vaults)
}

func (s *Server) handleVaultSecrets(w http.ResponseWriter, r *http.Request) {
	s.handleVaultItems(w, r, s.azure.Secrets)
}

func (s *Server) handleVaultCertificates(w http.ResponseWriter, r *http.Request) {
	s.handleVaultItems(w, r, s.azure.Certificates)
}

func (s *Server) handleVaultItems(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error),
) {
	vaultName := r.URL.Query().Get("vaultName")
	if vaultName == "" {
		s.writeBadRequest(w, "vaultName is required")

		return
	}

	items, err := list(r.Context(), vaultName, r.URL.Query().Get("subscriptionId"))
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, items)
}
