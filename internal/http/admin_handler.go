package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joscoffee/timeclock/internal/application"
)

// AdminSecretHeader carries the shared admin secret.
const AdminSecretHeader = "X-Admin-Pass"

type rosterService interface {
	Authorize(ctx context.Context, secret string) error
	ListEmployees(ctx context.Context, secret string) ([]application.Employee, error)
	UpdatePIN(ctx context.Context, params application.UpdatePINParams) (application.Employee, error)
	CreateEmployee(ctx context.Context, params application.CreateEmployeeParams) (application.Employee, error)
	ShiftHistory(ctx context.Context, params application.ShiftHistoryParams) (application.ShiftHistory, error)
}

// AdminHandler serves the roster administration endpoints.
type AdminHandler struct {
	service   rosterService
	responder responder
	log       handlerLog
}

func NewAdminHandler(service rosterService, logger *slog.Logger) *AdminHandler {
	log := newHandlerLog("AdminHandler", logger)
	return &AdminHandler{service: service, responder: newResponder(log.base), log: log}
}

func (h *AdminHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h == nil || h.service == nil {
		newResponder(nil).writeMessage(r.Context(), w, http.StatusInternalServerError, msgConfig)
		return false
	}
	return true
}

// List handles GET /admin/staff.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()
	secret := r.Header.Get(AdminSecretHeader)
	if secret == "" {
		secret = r.URL.Query().Get("pass")
	}

	employees, err := h.service.ListEmployees(ctx, secret)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	staff := make([]staffDTO, 0, len(employees))
	for _, employee := range employees {
		staff = append(staff, toStaffDTO(employee))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, staffListResponse{OK: true, Staff: staff})
}

// UpdatePIN handles POST /admin/staff/pin and its legacy alias.
func (h *AdminHandler) UpdatePIN(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()
	var req updatePINRequest
	secret, ok := h.decodeAuthorized(w, r, "UpdatePIN", &req)
	if !ok {
		return
	}

	employee, err := h.service.UpdatePIN(ctx, application.UpdatePINParams{
		Secret:     secret,
		EmployeeID: string(req.ID),
		PINCode:    req.pin(),
		Active:     req.Active,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, staffResponse{OK: true, Staff: toStaffDTO(employee)})
}

// Create handles POST /admin/staff.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()
	var req createEmployeeRequest
	secret, ok := h.decodeAuthorized(w, r, "Create", &req)
	if !ok {
		return
	}

	employee, err := h.service.CreateEmployee(ctx, application.CreateEmployeeParams{
		Secret:   secret,
		FullName: req.FullName,
		PINCode:  req.pin(),
		Active:   req.Active,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, staffResponse{OK: true, Staff: toStaffDTO(employee)})
}

// History handles GET /admin/staff/{id}/punches.
func (h *AdminHandler) History(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()
	secret := r.Header.Get(AdminSecretHeader)
	employeeID, _ := EmployeeIDFromContext(ctx)

	var limit *int
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			if authErr := h.service.Authorize(ctx, secret); authErr != nil {
				h.responder.handleServiceError(ctx, w, authErr)
				return
			}
			h.responder.writeValidation(ctx, w, &application.ValidationError{
				FieldErrors: map[string]string{"limit": "limit must be an integer"},
			}, "limit")
			return
		}
		limit = &parsed
	}

	history, err := h.service.ShiftHistory(ctx, application.ShiftHistoryParams{
		Secret:     secret,
		EmployeeID: employeeID,
		Limit:      limit,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	punches := make([]punchDTO, 0, len(history.Events))
	for _, event := range history.Events {
		punches = append(punches, toPunchDTO(event))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, historyResponse{
		OK:      true,
		Staff:   toStaffDTO(history.Employee),
		State:   string(history.State),
		Punches: punches,
	})
}

// decodeAuthorized authorizes the header or adminPass secret, then decodes the
// typed fields into dst. On false a response has already been written.
func (h *AdminHandler) decodeAuthorized(w http.ResponseWriter, r *http.Request, operation string, dst any) (string, bool) {
	ctx := r.Context()

	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		h.rejectBody(w, r, operation, err)
		return "", false
	}
	var envelope adminEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.rejectBody(w, r, operation, err)
		return "", false
	}

	secret := adminSecret(r, envelope.secret())
	if err := h.service.Authorize(ctx, secret); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return "", false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		h.log.rejected(ctx, operation, "validation", "admin request has mistyped fields", "error", err)
		h.responder.writeValidation(ctx, w, fieldTypeError(err), "id", "fullName", "pinCode", "active")
		return "", false
	}
	return secret, true
}

// rejectBody answers a body that is not a JSON object. Only the header secret
// can be checked, so an unauthorized caller learns nothing about payload handling.
func (h *AdminHandler) rejectBody(w http.ResponseWriter, r *http.Request, operation string, decodeErr error) {
	ctx := r.Context()
	if err := h.service.Authorize(ctx, r.Header.Get(AdminSecretHeader)); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.log.rejected(ctx, operation, "bad_request", "failed to decode admin request", "error", decodeErr)
	h.responder.writeMessage(ctx, w, http.StatusBadRequest, msgBadRequestBody)
}

func adminSecret(r *http.Request, bodySecret string) string {
	if secret := r.Header.Get(AdminSecretHeader); secret != "" {
		return secret
	}
	return bodySecret
}

// adminEnvelope holds only the body secret. Any other field may be mistyped.
type adminEnvelope struct {
	AdminPass json.RawMessage `json:"adminPass"`
}

func (e adminEnvelope) secret() string {
	var secret string
	if err := json.Unmarshal(e.AdminPass, &secret); err != nil {
		return ""
	}
	return secret
}

func fieldTypeError(err error) *application.ValidationError {
	field := "body"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field = typeErr.Field
	}
	return &application.ValidationError{
		FieldErrors: map[string]string{field: field + " has an invalid type"},
	}
}

// flexibleString accepts a value sent as a JSON string or number.
type flexibleString string

func (f *flexibleString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*f = flexibleString(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return &json.UnmarshalTypeError{Value: string(trimmed), Type: reflect.TypeOf("")}
	}
	*f = flexibleString(number.String())
	return nil
}

// adminPass is decoded separately by decodeAuthorized.
type updatePINRequest struct {
	ID            flexibleString `json:"id"`
	PINCode       flexibleString `json:"pinCode"`
	LegacyPINCode flexibleString `json:"pin_code"`
	Active        *bool          `json:"active"`
}

func (r updatePINRequest) pin() string {
	if r.PINCode != "" {
		return string(r.PINCode)
	}
	return string(r.LegacyPINCode)
}

type createEmployeeRequest struct {
	FullName      string         `json:"fullName"`
	PINCode       flexibleString `json:"pinCode"`
	LegacyPINCode flexibleString `json:"pin_code"`
	Active        *bool          `json:"active"`
}

func (r createEmployeeRequest) pin() string {
	if r.PINCode != "" {
		return string(r.PINCode)
	}
	return string(r.LegacyPINCode)
}

type staffDTO struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	PINCode  string `json:"pinCode"`
	Active   bool   `json:"active"`
}

func toStaffDTO(employee application.Employee) staffDTO {
	return staffDTO{
		ID:       employee.ID,
		FullName: employee.FullName,
		PINCode:  employee.PINCode,
		Active:   employee.Active,
	}
}

type punchDTO struct {
	ID         string  `json:"id"`
	Seq        int64   `json:"seq"`
	Action     string  `json:"action"`
	OccurredAt string  `json:"occurredAt"`
	Note       *string `json:"note"`
}

func toPunchDTO(event application.PunchEvent) punchDTO {
	return punchDTO{
		ID:         event.ID,
		Seq:        event.Seq,
		Action:     string(event.Kind),
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
		Note:       event.Note,
	}
}

type staffListResponse struct {
	OK    bool       `json:"ok"`
	Staff []staffDTO `json:"staff"`
}

type staffResponse struct {
	OK    bool     `json:"ok"`
	Staff staffDTO `json:"staff"`
}

type historyResponse struct {
	OK      bool       `json:"ok"`
	Staff   staffDTO   `json:"staff"`
	State   string     `json:"state"`
	Punches []punchDTO `json:"punches"`
}
