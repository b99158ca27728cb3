package http

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/joscoffee/timeclock/internal/application"
	"github.com/joscoffee/timeclock/internal/shift"
)

type punchService interface {
	Punch(ctx context.Context, params application.PunchParams) (application.PunchResult, error)
}

// PunchHandler serves the kiosk.
type PunchHandler struct {
	service   punchService
	responder responder
	log       handlerLog
}

func NewPunchHandler(service punchService, logger *slog.Logger) *PunchHandler {
	log := newHandlerLog("PunchHandler", logger)
	return &PunchHandler{service: service, responder: newResponder(log.base), log: log}
}

// Punch handles POST /punch.
func (h *PunchHandler) Punch(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		newResponder(nil).writeMessage(r.Context(), w, http.StatusInternalServerError, msgConfig)
		return
	}

	ctx := r.Context()
	var req punchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.rejected(ctx, "Punch", "bad_request", "failed to decode punch request", "error", err)
		h.responder.writeMessage(ctx, w, http.StatusBadRequest, msgBadRequestBody)
		return
	}

	params, fieldErrors := req.toParams()
	if len(fieldErrors) > 0 {
		h.log.rejected(ctx, "Punch", "validation", "punch request rejected", "fields", fieldNames(fieldErrors))
		h.responder.writeValidation(ctx, w, &application.ValidationError{FieldErrors: fieldErrors}, "pin", "action", "note")
		return
	}

	result, err := h.service.Punch(ctx, params)
	if err != nil {
		h.responder.handlePunchError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, punchResponse{
		OK:        true,
		Action:    string(result.Event.Kind),
		StaffName: result.Employee.FullName,
	})
}

type punchRequest struct {
	PIN    string  `json:"pin"`
	Action string  `json:"action"`
	Note   *string `json:"note"`
}

// toParams validates the fields that can be judged without the roster.
func (r punchRequest) toParams() (application.PunchParams, map[string]string) {
	fieldErrors := make(map[string]string)

	pin := strings.TrimSpace(r.PIN)
	switch {
	case pin == "":
		fieldErrors["pin"] = "pin is required"
	case !application.ValidPIN(pin):
		fieldErrors["pin"] = "pin must be 4 to 6 digits"
	}

	if _, err := shift.ParseAction(r.Action); err != nil {
		fieldErrors["action"] = msgInvalidAction
	}

	return application.PunchParams{PIN: pin, Action: r.Action, Note: r.Note}, fieldErrors
}

type punchResponse struct {
	OK        bool   `json:"ok"`
	Action    string `json:"action"`
	StaffName string `json:"staffName"`
}

func fieldNames(fieldErrors map[string]string) []string {
	return slices.Sorted(maps.Keys(fieldErrors))
}
