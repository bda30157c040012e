package contracts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/gestao-municipal/gestao/internal/calendar"
	"github.com/gestao-municipal/gestao/internal/labels"
	"github.com/gestao-municipal/gestao/internal/platform/httpx"
	"github.com/gestao-municipal/gestao/internal/shared"
)

// Handler exposes contract endpoints.
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

// MountRoutes registers /contracts routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/summary", h.summary)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/manual-status", h.setManualStatus)
}

type contractView struct {
	View
	StatusLabel string `json:"status_label"`
	BadgeLabel  string `json:"active_amendment_label,omitempty"`
}

type summaryView struct {
	Summary
	Labels map[Status]string `json:"labels"`
}

type contractRequest struct {
	Code        string        `json:"code" validate:"required,max=64"`
	Object      string        `json:"object" validate:"max=2000"`
	Supplier    string        `json:"supplier" validate:"max=255"`
	Value       float64       `json:"value" validate:"gte=0"`
	BaseEndDate calendar.Date `json:"base_end_date"`
}

type manualStatusRequest struct {
	ManualStatus string `json:"manual_status" validate:"omitempty,oneof=executed rescinded"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status: Status(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}
	views, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if page, ok := shared.PaginationFromQuery(r.URL.Query(), len(views)); ok {
		start, end := page.Bounds()
		views = views[start:end]
		page.WriteHeaders(w)
	} else {
		w.Header().Set("X-Total-Count", strconv.Itoa(len(views)))
	}
	printer := h.printer(r)
	out := make([]contractView, 0, len(views))
	for _, v := range views {
		out = append(out, render(printer, v))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	printer := h.printer(r)
	out := summaryView{Summary: s, Labels: make(map[Status]string, len(AllStatuses))}
	for _, st := range AllStatuses {
		out.Labels[st] = printer.Label(string(st))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, render(h.printer(r), v))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondBindError(w, err)
		return
	}
	v, err := h.service.Create(r.Context(), req.input(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, render(h.printer(r), v))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req contractRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondBindError(w, err)
		return
	}
	v, err := h.service.Update(r.Context(), id, req.input(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, render(h.printer(r), v))
}

func (h *Handler) setManualStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req manualStatusRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondBindError(w, err)
		return
	}
	v, err := h.service.SetManualStatus(r.Context(), id, ManualStatus(req.ManualStatus), shared.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, render(h.printer(r), v))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id, shared.ActorFromContext(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req contractRequest) input(r *http.Request) Input {
	return Input{
		Code:        req.Code,
		Object:      req.Object,
		Supplier:    req.Supplier,
		Value:       req.Value,
		BaseEndDate: req.BaseEndDate,
		Actor:       shared.ActorFromContext(r.Context()),
	}
}

func (h *Handler) printer(r *http.Request) labels.Printer {
	return labels.NewPrinter(labels.Match(r.Header.Get("Accept-Language"), h.locale))
}

func render(p labels.Printer, v View) contractView {
	out := contractView{View: v, StatusLabel: p.Label(string(v.Status))}
	if v.ActiveAmendment != nil {
		out.BadgeLabel = p.Label(string(v.ActiveAmendment.Kind))
	}
	return out
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.Classify(httpx.ErrNotFound, err))
	case errors.Is(err, ErrDuplicateCode):
		httpx.RespondError(w, httpx.Classify(httpx.ErrConflict, err))
	case errors.Is(err, ErrValidation), errors.Is(err, calendar.ErrMalformedDate):
		httpx.RespondError(w, httpx.Classify(httpx.ErrValidation, err))
	default:
		h.logger.Error("contract request failed", slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.RespondError(w, err)
	}
}
