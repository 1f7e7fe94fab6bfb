package handlers

import (
	"errors"
	"net/http"

	"snapblog/internal/content"
	"snapblog/internal/views"
)

// HandlePage serves a static markdown page by its slug.
func (h *BlogHandler) HandlePage(slug string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := h.Pages.Get(slug)
		if err != nil {
			switch {
			case errors.Is(err, content.ErrPageNotFound):
				h.NotFound(w, r)
			default:
				h.InternalError(w, r, err)
			}
			return
		}

		h.render(w, r, "page.html", views.PageData{
			Common: h.newCommonData(r),
			Page:   page,
		})
	})
}
