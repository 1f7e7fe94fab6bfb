package handlers

import (
	"log/slog"
	"net/http"

	"snapblog/internal/content"
	"snapblog/internal/media"
	"snapblog/internal/middleware"
	"snapblog/internal/storage"
	"snapblog/internal/views"

	"github.com/justinas/nosurf"
)

// BlogHandler holds the state
type BlogHandler struct {
	Title    string
	DB       storage.Store
	Media    *media.Lifecycle
	Markdown *content.MarkDownRenderer
	Pages    *content.Pages
	Views    *views.Views
	Sessions *middleware.Sessions
	Logger   *slog.Logger
}

// NewBlogHandler creates the controller
func NewBlogHandler(db storage.Store, lifecycle *media.Lifecycle, markdown *content.MarkDownRenderer, pages *content.Pages, v *views.Views, sessions *middleware.Sessions, title string, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		Title:    title,
		DB:       db,
		Media:    lifecycle,
		Markdown: markdown,
		Pages:    pages,
		Views:    v,
		Sessions: sessions,
		Logger:   logger,
	}
}

// newCommonData collects the per-request data every page template needs.
func (h *BlogHandler) newCommonData(r *http.Request) views.Common {
	return views.Common{
		BlogTitle: h.Title,
		Username:  h.Sessions.Manager.GetString(r.Context(), "username"),
		CSRFToken: nosurf.Token(r),
	}
}

// currentUserID returns the logged-in user's id, or 0 when anonymous.
func (h *BlogHandler) currentUserID(r *http.Request) int64 {
	return h.Sessions.Manager.GetInt64(r.Context(), "userID")
}

func (h *BlogHandler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	if err := h.Views.Render(w, page, data); err != nil {
		h.Logger.Error("rendering template", "page", page, "err", err)
	}
}

// GetUserFromSession is a helper to get the logged-in username
func (h *BlogHandler) GetUserFromSession(r *http.Request) string {
	return h.Sessions.Manager.GetString(r.Context(), "username")
}
