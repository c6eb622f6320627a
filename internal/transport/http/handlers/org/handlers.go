package orghandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeoff/internal/domain/org"
	"timeoff/internal/transport/http/api"
	"timeoff/internal/transport/http/middleware"
	"timeoff/internal/transport/http/shared"
)

type Handler struct {
	Service *org.Service
}

func NewHandler(service *org.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/org", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/roles", h.handleListRoles)
		r.Post("/roles", h.handleCreateRole)
		r.Put("/roles/{roleID}", h.handleRenameRole)
		r.Delete("/roles/{roleID}", h.handleDeleteRole)
		r.Get("/locations", h.handleListLocations)
		r.Post("/locations", h.handleCreateLocation)
		r.Put("/locations/{locationID}", h.handleRenameLocation)
		r.Delete("/locations/{locationID}", h.handleDeleteLocation)
	})
}

type namePayload struct {
	Name string `json:"name"`
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	roles, err := h.Service.ListRoles(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_list_failed", "failed to list roles", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, ok := decodeName(w, r)
	if !ok {
		return
	}

	id, err := h.Service.CreateRole(r.Context(), user.OrgID, payload.Name, user.UserID)
	if err != nil {
		failCatalogError(w, r, err, "role_create_failed", "failed to create role")
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRenameRole(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, ok := decodeName(w, r)
	if !ok {
		return
	}

	if err := h.Service.RenameRole(r.Context(), user.OrgID, chi.URLParam(r, "roleID"), payload.Name); err != nil {
		failCatalogError(w, r, err, "role_update_failed", "failed to update role")
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteRole(r.Context(), user.OrgID, chi.URLParam(r, "roleID")); err != nil {
		failCatalogError(w, r, err, "role_delete_failed", "failed to delete role")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListLocations(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	locations, err := h.Service.ListLocations(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "location_list_failed", "failed to list locations", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, locations, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, ok := decodeName(w, r)
	if !ok {
		return
	}

	id, err := h.Service.CreateLocation(r.Context(), user.OrgID, payload.Name, user.UserID)
	if err != nil {
		failCatalogError(w, r, err, "location_create_failed", "failed to create location")
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRenameLocation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	payload, ok := decodeName(w, r)
	if !ok {
		return
	}

	if err := h.Service.RenameLocation(r.Context(), user.OrgID, chi.URLParam(r, "locationID"), payload.Name); err != nil {
		failCatalogError(w, r, err, "location_update_failed", "failed to update location")
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteLocation(r.Context(), user.OrgID, chi.URLParam(r, "locationID")); err != nil {
		failCatalogError(w, r, err, "location_delete_failed", "failed to delete location")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func decodeName(w http.ResponseWriter, r *http.Request) (namePayload, bool) {
	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return payload, false
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return payload, false
	}
	return payload, true
}

func failCatalogError(w http.ResponseWriter, r *http.Request, err error, code, fallback string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, org.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "record not found", requestID)
	case errors.Is(err, org.ErrDuplicateName):
		api.Fail(w, http.StatusConflict, "duplicate_name", err.Error(), requestID)
	case errors.Is(err, org.ErrInUse):
		api.Fail(w, http.StatusConflict, "in_use", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, fallback, requestID)
	}
}
