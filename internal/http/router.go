package http

import (
	"context"
	"net/http"
	"strings"
)

type RouterConfig struct {
	Blocks   *BlockHandler
	Calendar *CalendarHandler
	// HealthCheck backs GET /health; nil reports healthy.
	HealthCheck func(ctx context.Context) error
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	responder := newResponder(nil)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r.Context()); err != nil {
				responder.writeError(r.Context(), w, http.StatusServiceUnavailable, err)
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Blocks != nil {
		mux.HandleFunc("/blocks", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Blocks.List(w, r)
			case http.MethodPost:
				cfg.Blocks.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/blocks/", func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/blocks/"), "/"), "/")
			if parts[0] == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithBlockID(r.Context(), parts[0])
			r = r.WithContext(ctx)

			switch {
			case len(parts) == 1:
				switch r.Method {
				case http.MethodGet:
					cfg.Blocks.Get(w, r)
				case http.MethodPut:
					cfg.Blocks.Update(w, r)
				case http.MethodDelete:
					cfg.Blocks.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case len(parts) == 2:
				action := map[string]http.HandlerFunc{
					"move":      cfg.Blocks.Move,
					"resize":    cfg.Blocks.Resize,
					"duplicate": cfg.Blocks.Duplicate,
					"complete":  cfg.Blocks.Complete,
				}[parts[1]]
				if action == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				action(w, r)
			case len(parts) == 3 && parts[1] == "checklist" && parts[2] != "":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Blocks.ToggleChecklistItem(w, r.WithContext(ContextWithSubresourceID(ctx, parts[2])))
			case len(parts) == 3 && parts[1] == "occurrences" && parts[2] != "":
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Blocks.DeleteOccurrence(w, r.WithContext(ContextWithSubresourceID(ctx, parts[2])))
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Calendar != nil {
		mux.HandleFunc("/agenda", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Agenda(w, r)
		})
		mux.HandleFunc("/overlays", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Calendar.ListOverlays(w, r)
			case http.MethodPut:
				cfg.Calendar.ReplaceOverlays(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
		mux.HandleFunc("/reminders", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Reminders(w, r)
		})
		mux.HandleFunc("/calendar.ics", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Export(w, r)
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

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
