// Package http exposes the kiosk punch endpoint and the roster administration
// endpoints as JSON over net/http.
//
// Endpoints:
//   - POST /punch: body {"pin","action":"in"|"out","note"}. Accepted punches
//     answer {"ok":true,"action":"clock_in"|"clock_out","staffName"}. An
//     unknown PIN or an illegal transition answers 200 with {"ok":false,"error"}
//     so the kiosk can show the message without treating it as a fault.
//   - GET /admin/staff: lists every employee.
//   - POST /admin/staff: adds an employee, 201 on success.
//   - POST /admin/staff/pin (alias POST /admin/update-pin): body
//     {"id","pinCode","active"}. id may be a JSON string or number.
//   - GET /admin/staff/{id}/punches?limit=N: derived shift state plus the most
//     recent punches, newest first.
//   - GET /ping: liveness probe echoing the caller address and server time.
//
// Admin requests carry the shared secret in the X-Admin-Pass header. Write
// requests may instead send it as "adminPass" in the body, and GET /admin/staff
// also accepts the legacy "pass" query parameter.
//
// Every error body has the shape {"ok":false,"error":string}, optionally with
// an "errors" map of field messages.
package http
