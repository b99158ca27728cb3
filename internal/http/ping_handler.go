package http

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// PingHandler answers liveness probes from the kiosk.
type PingHandler struct {
	now       func() time.Time
	responder responder
}

func NewPingHandler(now func() time.Time) *PingHandler {
	if now == nil {
		now = time.Now
	}
	return &PingHandler{now: now, responder: newResponder(nil)}
}

// Ping handles GET /ping.
func (h *PingHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, pingResponse{
		OK:  true,
		IP:  clientIP(r),
		Now: h.now().UTC().Format(time.RFC3339Nano),
	})
}

type pingResponse struct {
	OK  bool   `json:"ok"`
	IP  string `json:"ip"`
	Now string `json:"now"`
}

// clientIP prefers the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
