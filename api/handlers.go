/*
handlers.go - HTTP API handlers for the rent ledger

PURPOSE:
  Exposes the rentals service via REST API. Handles HTTP request/response
  and JSON serialization, and delegates everything else to rentals and auth.

ENDPOINTS:
  Auth (public except /me):
    POST   /api/auth/signup
    POST   /api/auth/signin
    GET    /api/auth/me

  Properties:
    GET    /api/properties             List the owner's properties
    POST   /api/properties             Create property
    GET    /api/properties/{id}        Get property
    PUT    /api/properties/{id}        Update property
    DELETE /api/properties/{id}        Delete property (tenants are kept)

  Tenants:
    GET    /api/tenants?sort=&order=   List with balances
    POST   /api/tenants                Create tenant
    GET    /api/tenants/{id}           Get tenant
    PUT    /api/tenants/{id}           Update tenant
    DELETE /api/tenants/{id}           Delete tenant and its activities
    GET    /api/tenants/{id}/ledger    Tenant, activities and balance
    POST   /api/tenants/{id}/reconcile Generate this month's rent if due
    POST   /api/tenants/{id}/activities Record an activity

  Activities:
    GET    /api/activities/{id}/share?channel=  Message and handoff link

  Dashboard:
    GET    /api/dashboard

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing or invalid session
  - 404: Resource not found
  - 409: Conflict (email in use, duplicate rent)
  - 500: Internal errors; details are logged, not returned

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Bearer authentication
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/dwella/rent-engine/auth"
	"github.com/dwella/rent-engine/ledger"
	"github.com/dwella/rent-engine/rentals"
	"github.com/dwella/rent-engine/share"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Rentals *rentals.Service
	Auth    *auth.Service
	Logger  logrus.FieldLogger
	Metrics *HTTPMetrics

	validate *validator.Validate
}

func NewHandler(rentalsService *rentals.Service, authService *auth.Service, logger logrus.FieldLogger, metrics *HTTPMetrics) *Handler {
	return &Handler{
		Rentals:  rentalsService,
		Auth:     authService,
		Logger:   logger,
		Metrics:  metrics,
		validate: validator.New(),
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// SignUp creates an account and returns its session.
// POST /api/auth/signup
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.Auth.SignUp(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionDTO(session))
}

// SignIn returns a session for valid credentials.
// POST /api/auth/signin
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(session))
}

// Me returns the signed-in account.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	token, _ := bearerToken(r)
	user, err := h.Auth.CurrentUser(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// =============================================================================
// PROPERTY HANDLERS
// =============================================================================

func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Rentals.ListProperties(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]PropertyDTO, 0, len(properties))
	for _, p := range properties {
		dtos = append(dtos, toPropertyDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.Rentals.CreateProperty(r.Context(), req.toProperty(ownerFrom(r.Context())))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPropertyDTO(p))
}

func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id := ledger.PropertyID(chi.URLParam(r, "id"))
	p, err := h.Rentals.GetProperty(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(p))
}

func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	p := req.toProperty(ownerFrom(r.Context()))
	p.ID = ledger.PropertyID(chi.URLParam(r, "id"))
	if p.Status == "" {
		p.Status = ledger.PropertyActive
	}
	updated, err := h.Rentals.UpdateProperty(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(updated))
}

func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := ledger.PropertyID(chi.URLParam(r, "id"))
	if err := h.Rentals.DeleteProperty(r.Context(), ownerFrom(r.Context()), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TENANT HANDLERS
// =============================================================================

// ListTenants returns tenants with their balances.
// GET /api/tenants?q=term&sort=name|balance|status&order=asc|desc
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	by := ledger.TenantSort(r.URL.Query().Get("sort"))
	if by == "" {
		by = ledger.SortByName
	}
	switch by {
	case ledger.SortByName, ledger.SortByBalance, ledger.SortByStatus:
	default:
		writeError(w, http.StatusBadRequest, "sort must be name, balance or status", nil)
		return
	}
	summaries, err := h.Rentals.ListTenants(r.Context(), ownerFrom(r.Context()), rentals.TenantQuery{
		Search: r.URL.Query().Get("q"),
		Sort:   by,
		Desc:   r.URL.Query().Get("order") == "desc",
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]TenantDTO, 0, len(summaries))
	for _, s := range summaries {
		dtos = append(dtos, toTenantSummaryDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	t, err := req.toTenant(ownerFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	t, err = h.Rentals.CreateTenant(r.Context(), t)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenantDTO(t))
}

func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := ledger.TenantID(chi.URLParam(r, "id"))
	t, err := h.Rentals.GetTenant(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenantDTO(t))
}

func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	t, err := req.toTenant(ownerFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	t.ID = ledger.TenantID(chi.URLParam(r, "id"))
	updated, err := h.Rentals.UpdateTenant(r.Context(), t)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenantDTO(updated))
}

func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	id := ledger.TenantID(chi.URLParam(r, "id"))
	if err := h.Rentals.DeleteTenant(r.Context(), ownerFrom(r.Context()), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTenantLedger returns the tenant detail view.
// GET /api/tenants/{id}/ledger
func (h *Handler) GetTenantLedger(w http.ResponseWriter, r *http.Request) {
	id := ledger.TenantID(chi.URLParam(r, "id"))
	view, err := h.Rentals.TenantLedger(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LedgerDTO{
		Tenant:     toTenantDTO(view.Tenant),
		Activities: toActivityDTOs(view.Activities),
		Balance:    view.Balance,
	})
}

// ReconcileTenant generates the current month's rent when due. Clients call
// it when opening a tenant; repeated calls in a month are no-ops.
// POST /api/tenants/{id}/reconcile
func (h *Handler) ReconcileTenant(w http.ResponseWriter, r *http.Request) {
	id := ledger.TenantID(chi.URLParam(r, "id"))
	charge, err := h.Rentals.ReconcileTenant(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if charge == nil {
		writeJSON(w, http.StatusOK, ReconcileDTO{})
		return
	}
	dto := toActivityDTO(*charge)
	writeJSON(w, http.StatusCreated, ReconcileDTO{Charge: &dto})
}

// RecordActivity appends an activity to the tenant's ledger.
// POST /api/tenants/{id}/activities
func (h *Handler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	id := ledger.TenantID(chi.URLParam(r, "id"))
	a, err := h.Rentals.RecordActivity(r.Context(), ownerFrom(r.Context()), id, in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityDTO(a))
}

// =============================================================================
// SHARE AND DASHBOARD
// =============================================================================

// ShareActivity returns the message for the tenant and, for whatsapp and
// sms, the link that opens it on the landlord's phone.
// GET /api/activities/{id}/share?channel=text|whatsapp|sms
func (h *Handler) ShareActivity(w http.ResponseWriter, r *http.Request) {
	id := ledger.ActivityID(chi.URLParam(r, "id"))
	channel := share.Channel(r.URL.Query().Get("channel"))
	shared, err := h.Rentals.ShareActivity(r.Context(), ownerFrom(r.Context()), id, channel)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ShareDTO{
		Channel: string(shared.Channel),
		Message: shared.Message,
		Link:    shared.Link,
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Rentals.Dashboard(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(summary))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !h.decode(w, r, dst) {
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:  "Validation failed",
				Fields: formatValidationErrors(verrs),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// formatValidationErrors converts validator errors into field messages.
func formatValidationErrors(errs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("Field '%s' is required", err.Field())
		case "email":
			message = fmt.Sprintf("Field '%s' must be a valid email address", err.Field())
		case "max":
			message = fmt.Sprintf("Field '%s' must not exceed %s in length", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("Field '%s' must be at least %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("Field '%s' must be a date in YYYY-MM-DD format", err.Field())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", err.Field(), err.Tag())
		}
		fields = append(fields, FieldError{Field: err.Field(), Code: "validation_" + err.Tag(), Message: message})
	}
	return fields
}

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged with the request id and returned without details.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  verr.Message,
			Fields: []FieldError{{Field: verr.Field, Code: verr.Code, Message: verr.Message}},
		})
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ledger.ErrDuplicateRentCharge):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, auth.Message(err), nil)
	case errors.Is(err, auth.ErrEmailInUse):
		writeError(w, http.StatusConflict, auth.Message(err), nil)
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrOperationNotAllowed):
		writeError(w, http.StatusBadRequest, auth.Message(err), nil)
	default:
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
