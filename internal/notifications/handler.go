package notifications

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gestao-municipal/gestao/internal/platform/httpx"
)

// SettingsService validates and stores notification settings.
type SettingsService struct {
	store     SettingsStore
	validator *validator.Validate
}

// NewSettingsService constructs the service.
func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store, validator: httpx.NewValidator()}
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	return s.store.Load(ctx)
}

// Update normalises, validates and saves settings.
func (s *SettingsService) Update(ctx context.Context, in Settings) (Settings, error) {
	next := in.Normalize()
	if err := next.Validate(s.validator); err != nil {
		return Settings{}, err
	}
	return s.store.Save(ctx, next)
}

// Handler exposes the settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service *SettingsService
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *SettingsService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /settings/notifications routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.put)
}

type settingsRequest struct {
	Thresholds []int    `json:"thresholds"`
	Recipients []string `json:"recipients"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("load notification settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	s, err := h.service.Update(r.Context(), Settings{Thresholds: req.Thresholds, Recipients: req.Recipients})
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			httpx.RespondBindError(w, fieldErrs)
			return
		}
		h.logger.Error("save notification settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}
