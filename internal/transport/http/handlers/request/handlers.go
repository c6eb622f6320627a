package requesthandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timeoff/internal/domain/request"
	"timeoff/internal/platform/email"
	"timeoff/internal/transport/http/api"
	"timeoff/internal/transport/http/middleware"
	"timeoff/internal/transport/http/shared"
)

type Handler struct {
	Service *request.Service
	Mailer  email.Mailer
}

func NewHandler(service *request.Service, mailer email.Mailer) *Handler {
	return &Handler{Service: service, Mailer: mailer}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{requestID}", h.handleGet)
		r.Put("/{requestID}", h.handleUpdate)
		r.With(middleware.RequireAdmin).Delete("/{requestID}", h.handleDelete)
		r.With(middleware.RequireAdmin).Post("/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequireAdmin).Post("/{requestID}/deny", h.handleDeny)
	})
}

type requestPayload struct {
	EmployeeID     string `json:"employeeId"`
	Type           string `json:"type"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	HoursRequested int    `json:"hoursRequested"`
	Notes          string `json:"notes"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	filter := request.ListFilter{
		EmployeeID: r.URL.Query().Get("employeeId"),
		Status:     r.URL.Query().Get("status"),
		Type:       r.URL.Query().Get("type"),
	}
	// Non-admins only ever see their own requests.
	if !user.IsAdmin() {
		filter.EmployeeID = user.EmployeeID
	}

	page := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.List(r.Context(), user.OrgID, filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "request_list_failed", "failed to list requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, err := h.Service.Get(r.Context(), user.OrgID, chi.URLParam(r, "requestID"))
	if err != nil {
		failRequestError(w, r, err, "request_get_failed", "failed to load request")
		return
	}
	if !user.IsAdmin() && req.EmployeeID != user.EmployeeID {
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, in, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	employeeID := user.EmployeeID
	if user.IsAdmin() && payload.EmployeeID != "" {
		employeeID = payload.EmployeeID
	}
	if employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "employeeId is required", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.Create(r.Context(), user.OrgID, employeeID, in)
	if err != nil {
		failRequestError(w, r, err, "request_create_failed", "failed to create request")
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")
	if !h.canAct(w, r, user.IsAdmin(), user.EmployeeID, requestID) {
		return
	}

	_, in, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	if err := h.Service.Update(r.Context(), user.OrgID, requestID, in); err != nil {
		failRequestError(w, r, err, "request_update_failed", "failed to update request")
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	if err := h.Service.Delete(r.Context(), user.OrgID, requestID); err != nil {
		failRequestError(w, r, err, "request_delete_failed", "failed to delete request")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	result, err := h.Service.Approve(r.Context(), user.OrgID, chi.URLParam(r, "requestID"), user.UserID)
	if err != nil {
		failRequestError(w, r, err, "request_approve_failed", "failed to approve request")
		return
	}
	h.notify(r, result, "approved")
	api.Success(w, map[string]string{"id": result.RequestID, "status": result.Status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeny(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	result, err := h.Service.Deny(r.Context(), user.OrgID, chi.URLParam(r, "requestID"), user.UserID)
	if err != nil {
		failRequestError(w, r, err, "request_deny_failed", "failed to deny request")
		return
	}
	h.notify(r, result, "denied")
	api.Success(w, map[string]string{"id": result.RequestID, "status": result.Status}, middleware.GetRequestID(r.Context()))
}

// canAct loads the request and enforces ownership for non-admins. Failures
// are reported as not found to avoid leaking other employees' requests.
func (h *Handler) canAct(w http.ResponseWriter, r *http.Request, isAdmin bool, employeeID, requestID string) bool {
	user, _ := middleware.GetUser(r.Context())
	req, err := h.Service.Get(r.Context(), user.OrgID, requestID)
	if err != nil {
		failRequestError(w, r, err, "request_get_failed", "failed to load request")
		return false
	}
	if !isAdmin && req.EmployeeID != employeeID {
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func (h *Handler) notify(r *http.Request, result request.ActionResult, verb string) {
	if h.Mailer == nil || result.EmployeeEmail == "" {
		return
	}
	subject := fmt.Sprintf("Your time-off request was %s", verb)
	body := fmt.Sprintf("Hi %s,\n\nYour time-off request has been %s.\n", result.EmployeeName, verb)
	if err := h.Mailer.Send(r.Context(), result.EmployeeEmail, subject, body); err != nil {
		slog.Warn("request notification failed", "requestId", result.RequestID, "err", err)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (requestPayload, request.Input, bool) {
	var payload requestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return payload, request.Input{}, false
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "type is required")
	v.Enum("type", payload.Type, request.Types, "must be one of days_off, hours_off, sick_leave")
	start, startOK := v.Date("startDate", payload.StartDate)

	var end *time.Time
	switch payload.Type {
	case request.TypeDaysOff, request.TypeSickLeave:
		parsed, endOK := v.Date("endDate", payload.EndDate)
		if startOK && endOK {
			v.DateOrder("startDate", start, "endDate", parsed)
			end = &parsed
		}
	case request.TypeHoursOff:
		v.IntRange("hoursRequested", payload.HoursRequested, 1, 8, "must be between 1 and 8")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return payload, request.Input{}, false
	}

	return payload, request.Input{
		Type:           payload.Type,
		StartDate:      start,
		EndDate:        end,
		HoursRequested: payload.HoursRequested,
		Notes:          payload.Notes,
	}, true
}

func failRequestError(w http.ResponseWriter, r *http.Request, err error, code, fallback string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, request.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", requestID)
	case errors.Is(err, request.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, request.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "request cannot change state from its current status", requestID)
	case errors.Is(err, request.ErrOverlap):
		api.Fail(w, http.StatusConflict, "overlapping_request", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, fallback, requestID)
	}
}
