package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-relay/core"
)

// AdminService is the management surface the admin router drives. The relay
// facade implements it; mutations that affect routing also refresh the
// in-memory pools and auth snapshot.
type AdminService interface {
	LoadGlobalConfig(ctx context.Context) (core.GlobalConfig, bool, error)
	SaveGlobalConfig(ctx context.Context, in core.GlobalConfig) error

	ListProviders(ctx context.Context) ([]core.Provider, error)
	CreateProvider(ctx context.Context, in core.Provider) (core.Provider, error)
	GetProvider(ctx context.Context, id string) (core.Provider, error)
	UpdateProvider(ctx context.Context, in core.Provider) (core.Provider, error)
	DeleteProvider(ctx context.Context, id string) error

	ListCredentials(ctx context.Context) ([]core.Credential, error)
	CreateCredential(ctx context.Context, in core.Credential) (core.Credential, error)
	GetCredential(ctx context.Context, id string) (core.Credential, error)
	UpdateCredential(ctx context.Context, in core.Credential) (core.Credential, error)
	DeleteCredential(ctx context.Context, id string) error

	ListDisallow(ctx context.Context) ([]core.DisallowRecord, error)
	CreateDisallow(ctx context.Context, in core.DisallowRecord) (core.DisallowRecord, error)
	DeleteDisallow(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]core.User, error)
	CreateUser(ctx context.Context, in core.User) (core.User, error)
	DeleteUser(ctx context.Context, id string) error

	ListAPIKeys(ctx context.Context) ([]core.APIKey, error)
	CreateAPIKey(ctx context.Context, in core.APIKey) (core.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
	SetAPIKeyEnabled(ctx context.Context, id string, enabled bool) error

	Reload(ctx context.Context) error
	Stats(ctx context.Context) (core.StatsReport, error)
}

// AdminHandler mounts the management API under /admin, guarded by the
// configured admin key.
type AdminHandler struct {
	adminKey string
	service  AdminService
	logger   core.Logger
	mux      *http.ServeMux
}

func NewAdminHandler(adminKey string, service AdminService, logger core.Logger) *AdminHandler {
	h := &AdminHandler{
		adminKey: adminKey,
		service:  service,
		logger:   glog.Ensure(logger),
		mux:      http.NewServeMux(),
	}
	h.routes()
	return h
}

func (h *AdminHandler) routes() {
	h.mux.HandleFunc("GET /admin/health", h.health)
	h.mux.HandleFunc("GET /admin/config", h.getConfig)
	h.mux.HandleFunc("PUT /admin/config", h.putConfig)

	h.mux.HandleFunc("GET /admin/providers", h.listProviders)
	h.mux.HandleFunc("POST /admin/providers", h.createProvider)
	h.mux.HandleFunc("GET /admin/providers/{id}", h.getProvider)
	h.mux.HandleFunc("PUT /admin/providers/{id}", h.updateProvider)
	h.mux.HandleFunc("DELETE /admin/providers/{id}", h.deleteProvider)

	h.mux.HandleFunc("GET /admin/credentials", h.listCredentials)
	h.mux.HandleFunc("POST /admin/credentials", h.createCredential)
	h.mux.HandleFunc("GET /admin/credentials/{id}", h.getCredential)
	h.mux.HandleFunc("PUT /admin/credentials/{id}", h.updateCredential)
	h.mux.HandleFunc("DELETE /admin/credentials/{id}", h.deleteCredential)

	h.mux.HandleFunc("GET /admin/disallow", h.listDisallow)
	h.mux.HandleFunc("POST /admin/disallow", h.createDisallow)
	h.mux.HandleFunc("DELETE /admin/disallow/{id}", h.deleteDisallow)

	h.mux.HandleFunc("GET /admin/users", h.listUsers)
	h.mux.HandleFunc("POST /admin/users", h.createUser)
	h.mux.HandleFunc("DELETE /admin/users/{id}", h.deleteUser)

	h.mux.HandleFunc("GET /admin/keys", h.listAPIKeys)
	h.mux.HandleFunc("POST /admin/keys", h.createAPIKey)
	h.mux.HandleFunc("DELETE /admin/keys/{id}", h.deleteAPIKey)
	h.mux.HandleFunc("POST /admin/keys/{id}/disable", h.disableAPIKey)
	h.mux.HandleFunc("POST /admin/keys/{id}/enable", h.enableAPIKey)

	h.mux.HandleFunc("POST /admin/reload", h.reload)
	h.mux.HandleFunc("GET /admin/stats", h.stats)
}

func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeRelayError(w, goerrors.New("gateway: invalid or missing admin key", goerrors.CategoryAuthz).
			WithTextCode(core.RelayErrorForbidden))
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if strings.TrimSpace(h.adminKey) == "" {
		return false
	}
	candidate := r.Header.Get("x-admin-key")
	if candidate == "" {
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			candidate = strings.TrimSpace(token)
		}
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(h.adminKey)) == 1
}

func (h *AdminHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) getConfig(w http.ResponseWriter, r *http.Request) {
	config, found, err := h.service.LoadGlobalConfig(r.Context())
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	if !found {
		writeRelayError(w, goerrors.New("gateway: global config not found", goerrors.CategoryNotFound).
			WithTextCode(core.RelayErrorBadInput))
		return
	}
	writeJSON(w, http.StatusOK, config)
}

func (h *AdminHandler) putConfig(w http.ResponseWriter, r *http.Request) {
	var config core.GlobalConfig
	if !decodeJSON(w, r, &config) {
		return
	}
	if err := h.service.SaveGlobalConfig(r.Context(), config); err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, config)
}

func (h *AdminHandler) listProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.service.ListProviders(r.Context())
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

func (h *AdminHandler) createProvider(w http.ResponseWriter, r *http.Request) {
	var provider core.Provider
	if !decodeJSON(w, r, &provider) {
		return
	}
	created, err := h.service.CreateProvider(r.Context(), provider)
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) getProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := h.service.GetProvider(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, provider)
}

func (h *AdminHandler) updateProvider(w http.ResponseWriter, r *http.Request) {
	var provider core.Provider
	if !decodeJSON(w, r, &provider) {
		return
	}
	provider.ID = r.PathValue("id")
	updated, err := h.service.UpdateProvider(r.Context(), provider)
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) deleteProvider(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProvider(r.Context(), r.PathValue("id")); err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listCredentials(w http.ResponseWriter, r *http.Request) {
	credentials, err := h.service.ListCredentials(r.Context())
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, credentials)
}

func (h *AdminHandler) createCredential(w http.ResponseWriter, r *http.Request) {
	var credential core.Credential
	if !decodeJSON(w, r, &credential) {
		return
	}
	created, err := h.service.CreateCredential(r.Context(), credential)
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) getCredential(w http.ResponseWriter, r *http.Request) {
	credential, err := h.service.GetCredential(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, credential)
}

func (h *AdminHandler) updateCredential(w http.ResponseWriter, r *http.Request) {
	var credential core.Credential
	if !decodeJSON(w, r, &credential) {
		return
	}
	credential.ID = r.PathValue("id")
	updated, err := h.service.UpdateCredential(r.Context(), credential)
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) deleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCredential(r.Context(), r.PathValue("id")); err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listDisallow(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListDisallow(r.Context())
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *AdminHandler) createDisallow(w http.ResponseWriter, r *http.Request) {
	var record core.DisallowRecord
	if !decodeJSON(w, r, &record) {
		return
	}
	created, err := h.service.CreateDisallow(r.Context(), record)
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) deleteDisallow(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDisallow(r.Context(), r.PathValue("id")); err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var user core.User
	if !decodeJSON(w, r, &user) {
		return
	}
	created, err := h.service.CreateUser(r.Context(), user)
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.ListAPIKeys(r.Context())
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *AdminHandler) createAPIKey(w http.ResponseWriter, r *http.Request) {
	var key core.APIKey
	if !decodeJSON(w, r, &key) {
		return
	}
	created, err := h.service.CreateAPIKey(r.Context(), key)
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) deleteAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAPIKey(r.Context(), r.PathValue("id")); err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) disableAPIKey(w http.ResponseWriter, r *http.Request) {
	h.setAPIKeyEnabled(w, r, false)
}

func (h *AdminHandler) enableAPIKey(w http.ResponseWriter, r *http.Request) {
	h.setAPIKeyEnabled(w, r, true)
}

func (h *AdminHandler) setAPIKeyEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	if err := h.service.SetAPIKeyEnabled(r.Context(), r.PathValue("id"), enabled); err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "enabled": enabled})
}

func (h *AdminHandler) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reload(r.Context()); err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Stats(r.Context())
	if err != nil {
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload) //nolint:errcheck
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeRelayError(w, goerrors.Wrap(err, goerrors.CategoryBadInput, "gateway: invalid json body").
			WithTextCode(core.RelayErrorBadInput))
		return false
	}
	return true
}
