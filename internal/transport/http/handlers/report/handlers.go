package reporthandler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"timeoff/internal/domain/report"
	"timeoff/internal/transport/http/api"
	"timeoff/internal/transport/http/middleware"
	"timeoff/internal/transport/http/shared"
)

type Handler struct {
	Service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/overview", h.handleOverview)
		r.Get("/shortages", h.handleShortages)
		r.Get("/requests/export", h.handleExport)
	})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	overview, err := h.Service.Overview(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overview_failed", "failed to load overview", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, overview, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleShortages(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	now := time.Now().UTC()
	year, month := now.Year(), now.Month()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2200 {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid year", middleware.GetRequestID(r.Context()))
			return
		}
		year = parsed
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid month", middleware.GetRequestID(r.Context()))
			return
		}
		month = time.Month(parsed)
	}

	shortages, err := h.Service.Shortages(r.Context(), user.OrgID, year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shortages_failed", "failed to compute shortages", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, shortages, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	q := r.URL.Query()

	filter := report.ExportFilter{
		Search:     q.Get("search"),
		Type:       q.Get("type"),
		Status:     q.Get("status"),
		LocationID: q.Get("locationId"),
	}
	if raw := q.Get("startDate"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid startDate", middleware.GetRequestID(r.Context()))
			return
		}
		filter.StartDate = &parsed
	}
	if raw := q.Get("endDate"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid endDate", middleware.GetRequestID(r.Context()))
			return
		}
		filter.EndDate = &parsed
	}

	rows, err := h.Service.ExportRows(r.Context(), user.OrgID, filter)
	if err != nil {
		if errors.Is(err, report.ErrTooManyRows) {
			api.Fail(w, http.StatusBadRequest, "export_too_large", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export requests", middleware.GetRequestID(r.Context()))
		return
	}

	filename := "time-off-requests-" + time.Now().Format("2006-01-02")
	switch q.Get("format") {
	case "pdf":
		orgName := h.orgName(r, user.OrgID)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
		if err := report.WritePDF(w, orgName, rows); err != nil {
			api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render pdf", middleware.GetRequestID(r.Context()))
		}
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))
		if err := report.WriteCSV(w, rows); err != nil {
			api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render csv", middleware.GetRequestID(r.Context()))
		}
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "format must be csv or pdf", middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) orgName(r *http.Request, orgID string) string {
	var name string
	if err := h.Service.DB.QueryRow(r.Context(), "SELECT name FROM organizations WHERE id = $1", orgID).Scan(&name); err != nil {
		return ""
	}
	return name
}
