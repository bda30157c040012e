package amendments

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/gestao-municipal/gestao/internal/calendar"
	"github.com/gestao-municipal/gestao/internal/labels"
	"github.com/gestao-municipal/gestao/internal/platform/httpx"
	"github.com/gestao-municipal/gestao/internal/shared"
)

// Handler exposes the amendment workflow over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	locale    language.Tag
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, locale language.Tag) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator(), locale: locale}
}

// MountRoutes registers /amendments routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.get)
	r.Patch("/{id}/checklist", h.updateChecklist)
	r.Put("/{id}/note", h.setNote)
	r.Post("/{id}/decision", h.recordDecision)
	r.Post("/{id}/comments", h.comment)
	r.Post("/{id}/reset", h.reset)
}

// MountContractRoutes registers the amendment routes nested under /contracts.
func (h *Handler) MountContractRoutes(r chi.Router) {
	r.Get("/{id}/amendments", h.listByContract)
	r.Post("/{id}/amendments", h.open)
}

type amendmentView struct {
	Amendment
	StatusLabel string `json:"status_label"`
}

type openRequest struct {
	Number       string  `json:"number" validate:"max=64"`
	Type         string  `json:"type" validate:"required,oneof=term value"`
	Duration     float64 `json:"duration"`
	DurationUnit string  `json:"duration_unit" validate:"omitempty,oneof=day month year"`
	Description  string  `json:"description" validate:"max=2000"`
	EntryDate    string  `json:"entry_date"`
}

type checklistRequest struct {
	Version int64 `json:"version" validate:"required,min=1"`
	ChecklistPatch
}

type noteRequest struct {
	Version int64  `json:"version" validate:"required,min=1"`
	Note    string `json:"note" validate:"max=4000"`
}

type decisionRequest struct {
	Version  int64         `json:"version" validate:"required,min=1"`
	Decision LegalDecision `json:"decision" validate:"required,oneof=approved rejected approved_with_reservation"`
	Note     string        `json:"note" validate:"max=4000"`
}

type commentRequest struct {
	Version int64  `json:"version" validate:"required,min=1"`
	Note    string `json:"note" validate:"required,max=4000"`
}

type resetRequest struct {
	Version int64 `json:"version" validate:"required,min=1"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r, a))
}

func (h *Handler) listByContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.ListByContract(r.Context(), contractID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	printer := h.printer(r)
	out := make([]amendmentView, 0, len(items))
	for _, a := range items {
		out = append(out, amendmentView{Amendment: a, StatusLabel: printer.Label(string(a.Status))})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	contractID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req openRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondBindError(w, err)
		return
	}
	a, err := h.service.Open(r.Context(), OpenInput{
		ContractID:   contractID,
		Number:       req.Number,
		Type:         Type(req.Type),
		Duration:     req.Duration,
		DurationUnit: calendar.Unit(req.DurationUnit),
		Description:  req.Description,
		EntryDate:    req.EntryDate,
		Actor:        shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, h.view(r, a))
}

func (h *Handler) updateChecklist(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req checklistRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		h.bindFail(w, r, err)
		return
	}
	a, err := h.service.UpdateChecklist(r.Context(), ChecklistInput{
		ID: id, Version: req.Version, Patch: req.ChecklistPatch, Actor: shared.ActorFromContext(r.Context()),
	})
	h.respond(w, r, a, err)
}

func (h *Handler) setNote(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req noteRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondBindError(w, err)
		return
	}
	a, err := h.service.SetNote(r.Context(), NoteInput{
		ID: id, Version: req.Version, Note: req.Note, Actor: shared.ActorFromContext(r.Context()),
	})
	h.respond(w, r, a, err)
}

func (h *Handler) recordDecision(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req decisionRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		h.bindFail(w, r, err)
		return
	}
	a, err := h.service.RecordDecision(r.Context(), DecisionInput{
		ID: id, Version: req.Version, Decision: req.Decision, Note: req.Note, Actor: shared.ActorFromContext(r.Context()),
	})
	h.respond(w, r, a, err)
}

func (h *Handler) comment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req commentRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondBindError(w, err)
		return
	}
	a, err := h.service.Comment(r.Context(), CommentInput{
		ID: id, Version: req.Version, Note: req.Note, Actor: shared.ActorFromContext(r.Context()),
	})
	h.respond(w, r, a, err)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req resetRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondBindError(w, err)
		return
	}
	a, err := h.service.Reset(r.Context(), ResetInput{ID: id, Version: req.Version, Actor: shared.ActorFromContext(r.Context())})
	h.respond(w, r, a, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, a Amendment, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r, a))
}

// bindFail reports decode failures caused by an out-of-domain decision as a domain error.
func (h *Handler) bindFail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrInvalidDecision) {
		h.fail(w, r, err)
		return
	}
	httpx.RespondBindError(w, err)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	mapped := Classify(err)
	if mapped == nil {
		h.logger.Error("amendment request failed", slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondError(w, mapped)
}

func (h *Handler) printer(r *http.Request) labels.Printer {
	return labels.NewPrinter(labels.Match(r.Header.Get("Accept-Language"), h.locale))
}

func (h *Handler) view(r *http.Request, a Amendment) amendmentView {
	return amendmentView{Amendment: a, StatusLabel: h.printer(r).Label(string(a.Status))}
}

// Classify maps amendment errors to HTTP kinds. It returns nil for unknown errors.
func Classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return httpx.Classify(httpx.ErrNotFound, err)
	case errors.Is(err, ErrVersionConflict):
		return httpx.Classify(httpx.ErrConflict, err)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidDecision):
		return httpx.Classify(httpx.ErrValidation, err)
	case errors.Is(err, ErrNotRejected):
		return httpx.Classify(httpx.ErrUnprocessable, err)
	default:
		return nil
	}
}
