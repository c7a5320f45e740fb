package web

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/listcheck/internal/core"
	"github.com/JonMunkholm/listcheck/internal/logging"
)

// WorkspaceCookie carries the client's workspace id.
const WorkspaceCookie = "listcheck_ws"

// withWorkspace resolves the client's workspace from its cookie, creating a
// new one (and setting the cookie) when the cookie is missing or malformed.
func (s *Server) withWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(WorkspaceCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				id = c.Value
			}
		}

		ws := s.service.Workspace(id)
		if ws.ID() != id {
			logging.ForWorkspace(r.Context(), ws.ID()).Debug("workspace cookie issued", "had_cookie", id != "")
			http.SetCookie(w, &http.Cookie{
				Name:     WorkspaceCookie,
				Value:    ws.ID(),
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Security.SecureCookies,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(s.cfg.Server.WorkspaceIdleTTL.Seconds()),
			})
		}

		next.ServeHTTP(w, r.WithContext(core.ContextWithWorkspace(r.Context(), ws)))
	})
}

// workspace returns the request's workspace. Routes without withWorkspace
// get a throwaway one.
func (s *Server) workspace(r *http.Request) *core.Workspace {
	if ws := core.WorkspaceFromContext(r.Context()); ws != nil {
		return ws
	}
	return s.service.Workspace("")
}
