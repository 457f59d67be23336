package api

import (
	"net/http"

	"queryproxy/internal/core"
	"queryproxy/internal/logger"
	"queryproxy/internal/service"
)

// ConfigHandler manages each user's target database configuration.
type ConfigHandler struct {
	configs core.ConfigRepository
	cipher  *service.CredentialCipher
	open    service.PoolOpener
}

func NewConfigHandler(configs core.ConfigRepository, cipher *service.CredentialCipher, open service.PoolOpener) *ConfigHandler {
	return &ConfigHandler{configs: configs, cipher: cipher, open: open}
}

// Save validates the submitted config against the live database before
// persisting it, so a broken config is rejected up front. The password is
// encrypted at rest.
func (h *ConfigHandler) Save(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var cfg core.TenantConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg.UserID = claims.ID
	if cfg.Port == 0 {
		cfg.Port = 3306
	}

	if !cfg.Usable() {
		writeError(w, http.StatusBadRequest, "DB_HOST, DB_USER and DB_NAME are required")
		return
	}

	pool, err := h.open(r.Context(), &cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Database connection failed: "+err.Error())
		return
	}
	pool.Close()

	enc, err := h.cipher.Encrypt(cfg.Password)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("credential encryption failed")
		writeError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}
	cfg.Password = enc

	if err := h.configs.Save(r.Context(), &cfg); err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("config save failed")
		writeError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Configuration saved",
	})
}

// Get returns the stored config with the password decrypted for display.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	cfg, err := h.configs.GetByUserID(r.Context(), claims.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("config lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to load configuration")
		return
	}
	if cfg == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "No configuration found",
		})
		return
	}

	plain, err := h.cipher.Decrypt(cfg.Password)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", claims.ID).Msg("credential decryption failed")
		writeError(w, http.StatusInternalServerError, "Failed to load configuration")
		return
	}

	// Fields sit at the top level of the body; the dashboard reads the
	// flat shape.
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"USER_ID": cfg.UserID,
		"DB_HOST": cfg.Host,
		"DB_PORT": cfg.Port,
		"DB_USER": cfg.User,
		"DB_PASS": plain,
		"DB_NAME": cfg.Database,
	})
}
