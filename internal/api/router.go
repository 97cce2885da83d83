package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caffeinsmuggler/timesheet-ai/internal/review"
	"github.com/caffeinsmuggler/timesheet-ai/internal/roster"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *review.Service, rost *roster.Store, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, rost)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Sessions.
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions", h.ListSessions)
	r.Get("/sessions/{sessionID}", h.GetSession)
	r.Delete("/sessions/{sessionID}", h.DeleteSession)
	r.Get("/sessions/{sessionID}/image", h.GetImage)
	r.Post("/sessions/{sessionID}/finalize", h.Finalize)
	r.Post("/sessions/{sessionID}/llm-fill", h.LLMFill)

	// Items.
	r.Post("/sessions/{sessionID}/items", h.AddItem)
	r.Patch("/sessions/{sessionID}/items/{itemID}", h.PatchItem)
	r.Delete("/sessions/{sessionID}/items/{itemID}", h.DeleteItem)
	r.Post("/sessions/{sessionID}/items/{itemID}/clear", h.ClearItem)
	r.Post("/sessions/{sessionID}/items/{itemID}/reocr", h.ReextractItem)
	r.Get("/sessions/{sessionID}/items/{itemID}/crop", h.GetCrop)

	// Roster autocomplete.
	r.Get("/employees", h.Employees)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
