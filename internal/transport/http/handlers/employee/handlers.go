package employeehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"timeoff/internal/domain/employee"
	"timeoff/internal/transport/http/api"
	"timeoff/internal/transport/http/middleware"
	"timeoff/internal/transport/http/shared"
)

type Handler struct {
	Service *employee.Service
}

func NewHandler(service *employee.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequireAdmin).Get("/", h.handleList)
		r.With(middleware.RequireAdmin).Post("/", h.handleCreate)
		r.With(middleware.RequireAdmin).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequireAdmin).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequireAdmin).Delete("/{employeeID}", h.handleDelete)
		r.With(middleware.RequireAuth).Get("/{employeeID}/balance", h.handleBalance)
	})
}

type employeePayload struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	RoleID         string `json:"roleId"`
	LocationID     string `json:"locationId"`
	DaysAvailable  int    `json:"daysAvailable"`
	HoursAvailable int    `json:"hoursAvailable"`
	AnnualDays     int    `json:"annualDays"`
	AnnualHours    int    `json:"annualHours"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employees, err := h.Service.List(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.Get(r.Context(), user.OrgID, chi.URLParam(r, "employeeID"))
	if err != nil {
		failEmployeeError(w, r, err, "employee_get_failed", "failed to load employee")
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	in, ok := decodeEmployee(w, r)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), user.OrgID, user.UserID, in)
	if err != nil {
		failEmployeeError(w, r, err, "employee_create_failed", "failed to create employee")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	in, ok := decodeEmployee(w, r)
	if !ok {
		return
	}

	if err := h.Service.Update(r.Context(), user.OrgID, chi.URLParam(r, "employeeID"), in); err != nil {
		failEmployeeError(w, r, err, "employee_update_failed", "failed to update employee")
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.Delete(r.Context(), user.OrgID, chi.URLParam(r, "employeeID")); err != nil {
		failEmployeeError(w, r, err, "employee_delete_failed", "failed to delete employee")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

// Balance is visible to admins for anyone, and to an employee for their own
// record only.
func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !user.IsAdmin() && user.EmployeeID != employeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's balance", middleware.GetRequestID(r.Context()))
		return
	}

	balance, err := h.Service.Balance(r.Context(), user.OrgID, employeeID)
	if err != nil {
		failEmployeeError(w, r, err, "balance_failed", "failed to load balance")
		return
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

func decodeEmployee(w http.ResponseWriter, r *http.Request) (employee.Input, bool) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return employee.Input{}, false
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	if payload.Email != "" && !strings.Contains(payload.Email, "@") {
		v.Add("email", "must be a valid email address")
	}
	v.NonNegative("daysAvailable", payload.DaysAvailable, "must not be negative")
	v.NonNegative("hoursAvailable", payload.HoursAvailable, "must not be negative")
	v.NonNegative("annualDays", payload.AnnualDays, "must not be negative")
	v.NonNegative("annualHours", payload.AnnualHours, "must not be negative")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return employee.Input{}, false
	}

	return employee.Input{
		FirstName:      strings.TrimSpace(payload.FirstName),
		LastName:       strings.TrimSpace(payload.LastName),
		Email:          strings.ToLower(strings.TrimSpace(payload.Email)),
		RoleID:         payload.RoleID,
		LocationID:     payload.LocationID,
		DaysAvailable:  payload.DaysAvailable,
		HoursAvailable: payload.HoursAvailable,
		AnnualDays:     payload.AnnualDays,
		AnnualHours:    payload.AnnualHours,
	}, true
}

func failEmployeeError(w http.ResponseWriter, r *http.Request, err error, code, fallback string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, employee.ErrEmailInUse):
		api.Fail(w, http.StatusConflict, "email_in_use", err.Error(), requestID)
	case errors.Is(err, employee.ErrPendingRequests):
		api.Fail(w, http.StatusConflict, "pending_requests", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, fallback, requestID)
	}
}
