package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Punch      *PunchHandler
	Admin      *AdminHandler
	Ping       *PingHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", notFound)

	if cfg.Ping != nil {
		mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				methodNotAllowed(w, r, http.MethodGet, http.MethodHead)
				return
			}
			cfg.Ping.Ping(w, r)
		})
	}

	if cfg.Punch != nil {
		mux.HandleFunc("/punch", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, r, http.MethodPost)
				return
			}
			cfg.Punch.Punch(w, r)
		})
	}

	if cfg.Admin != nil {
		mux.HandleFunc("/admin/staff", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Admin.List(w, r)
			case http.MethodPost:
				cfg.Admin.Create(w, r)
			default:
				methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
			}
		})

		updatePIN := func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, r, http.MethodPost)
				return
			}
			cfg.Admin.UpdatePIN(w, r)
		}
		mux.HandleFunc("/admin/staff/pin", updatePIN)
		mux.HandleFunc("/admin/update-pin", updatePIN)

		mux.HandleFunc("/admin/staff/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/admin/staff/")
			id, ok := strings.CutSuffix(rest, "/punches")
			if !ok || id == "" || strings.Contains(id, "/") {
				notFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, r, http.MethodGet)
				return
			}
			ctx := ContextWithEmployeeID(r.Context(), id)
			cfg.Admin.History(w, r.WithContext(ctx))
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
