package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"snapblog/internal/media"
	"snapblog/internal/storage"
	"snapblog/internal/views"
)

const (
	postsPerPage    = 50
	commentsPerPost = 200
)

func (h *BlogHandler) HandleIndex() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts, err := h.DB.ListPosts(r.Context(), 0, postsPerPage)
		if err != nil {
			h.InternalError(w, r, err)
			return
		}

		h.render(w, r, "home.html", views.HomeData{
			Common: h.newCommonData(r),
			Posts:  posts,
		})
	})
}

func (h *BlogHandler) HandlePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post, ok := h.postFromPath(w, r)
		if !ok {
			return
		}

		htmlBytes, err := h.Markdown.Render([]byte(post.Body))
		if err != nil {
			h.Logger.Error("rendering post body", "post_id", post.ID, "err", err)
			h.InternalError(w, r, err)
			return
		}

		comments, err := h.DB.GetCommentsForPost(r.Context(), post.ID, 0, commentsPerPost)
		if err != nil {
			h.InternalError(w, r, err)
			return
		}

		h.render(w, r, "post.html", views.PostData{
			Common:   h.newCommonData(r),
			Post:     post,
			BodyHTML: template.HTML(htmlBytes),
			Comments: comments,
			IsOwner:  h.currentUserID(r) == post.AuthorID,
		})
	})
}

func (h *BlogHandler) HandleNewPostPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.currentUserID(r) == 0 {
			h.Unauthorised(w, r)
			return
		}

		h.render(w, r, "post_form.html", views.PostFormData{
			Common:  h.newCommonData(r),
			Heading: "New Post",
			Action:  "/post/new",
		})
	})
}

func (h *BlogHandler) HandleCreatePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := h.currentUserID(r)
		if userID == 0 {
			h.Unauthorised(w, r)
			return
		}

		form, ok := h.readPostForm(w, r)
		if !ok {
			return
		}

		retry := func(code int, msg string) {
			w.WriteHeader(code)
			h.render(w, r, "post_form.html", views.PostFormData{
				Common:     h.newCommonData(r),
				Heading:    "New Post",
				Action:     "/post/new",
				Title:      form.title,
				Body:       form.body,
				FieldError: msg,
			})
		}

		if msg := validatePostForm(form); msg != "" {
			retry(http.StatusBadRequest, msg)
			return
		}

		post, err := h.Media.CreatePost(r.Context(), userID, form.title, form.body, form.upload)
		if err != nil {
			code, msg, internal := uploadErrorMessage(err, h.Media.MaxUploadBytes())
			if internal {
				h.InternalError(w, r, err)
				return
			}
			retry(code, msg)
			return
		}

		h.Logger.Info("post created", "post_id", post.ID, "author_id", userID)
		http.Redirect(w, r, fmt.Sprintf("/post/%d", post.ID), http.StatusSeeOther)
	})
}

func (h *BlogHandler) HandleEditPostPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := h.currentUserID(r)
		if userID == 0 {
			h.Unauthorised(w, r)
			return
		}

		post, ok := h.postFromPath(w, r)
		if !ok {
			return
		}

		// non-owners get the same 404 as a missing post
		if post.AuthorID != userID {
			h.NotFound(w, r)
			return
		}

		h.render(w, r, "post_form.html", views.PostFormData{
			Common:  h.newCommonData(r),
			Heading: "Edit Post",
			Action:  fmt.Sprintf("/post/%d/edit", post.ID),
			Title:   post.Title,
			Body:    post.Body,
		})
	})
}

func (h *BlogHandler) HandleUpdatePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := h.currentUserID(r)
		if userID == 0 {
			h.Unauthorised(w, r)
			return
		}

		postID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			h.NotFound(w, r)
			return
		}

		form, ok := h.readPostForm(w, r)
		if !ok {
			return
		}

		retry := func(code int, msg string) {
			w.WriteHeader(code)
			h.render(w, r, "post_form.html", views.PostFormData{
				Common:     h.newCommonData(r),
				Heading:    "Edit Post",
				Action:     fmt.Sprintf("/post/%d/edit", postID),
				Title:      form.title,
				Body:       form.body,
				FieldError: msg,
			})
		}

		if msg := validatePostForm(form); msg != "" {
			retry(http.StatusBadRequest, msg)
			return
		}

		post, cleanup, err := h.Media.UpdatePost(r.Context(), postID, userID, form.title, form.body, form.upload)
		h.logCleanup(r, "post edit", cleanup)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				h.NotFound(w, r)
			default:
				code, msg, internal := uploadErrorMessage(err, h.Media.MaxUploadBytes())
				if internal {
					// the user keeps their edited text rather than
					// landing on the error page
					h.Logger.Error("updating post", "post_id", postID, "err", err)
					retry(http.StatusInternalServerError, "Something went wrong saving your changes. Please try again.")
					return
				}
				retry(code, msg)
			}
			return
		}

		h.Logger.Info("post updated", "post_id", post.ID, "author_id", userID)
		http.Redirect(w, r, fmt.Sprintf("/post/%d", post.ID), http.StatusSeeOther)
	})
}

func (h *BlogHandler) HandleDeletePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := h.currentUserID(r)
		if userID == 0 {
			h.Unauthorised(w, r)
			return
		}

		postID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			h.NotFound(w, r)
			return
		}

		cleanup, err := h.Media.DeletePost(r.Context(), postID, userID)
		h.logCleanup(r, "post delete", cleanup)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				h.NotFound(w, r)
			default:
				h.InternalError(w, r, err)
			}
			return
		}

		h.Logger.Info("post deleted", "post_id", postID, "author_id", userID)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

// postForm is the parsed create/edit submission.
type postForm struct {
	title  string
	body   string
	upload *media.Upload
}

// readPostForm parses the multipart body. A nil upload means the user sent no
// file; the lifecycle decides whether that is an error. Returns false after
// having already written a response.
func (h *BlogHandler) readPostForm(w http.ResponseWriter, r *http.Request) (postForm, bool) {
	// allow max upload plus some slack for the text fields
	r.Body = http.MaxBytesReader(w, r.Body, h.Media.MaxUploadBytes()+1<<20)

	if err := r.ParseMultipartForm(h.Media.MaxUploadBytes()); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.renderError(w, r, http.StatusRequestEntityTooLarge,
				"Upload Too Large",
				fmt.Sprintf("The image must be %d MB or smaller.", h.Media.MaxUploadBytes()/(1024*1024)),
			)
			return postForm{}, false
		}
		h.Logger.Warn("bad multipart form", "err", err, "ip", r.RemoteAddr)
		h.renderError(w, r, http.StatusBadRequest, "Bad Request", "The form could not be read.")
		return postForm{}, false
	}

	form := postForm{
		title: strings.TrimSpace(r.FormValue("title")),
		body:  r.FormValue("body"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return form, true
	case err != nil:
		h.Logger.Warn("reading upload", "err", err, "ip", r.RemoteAddr)
		h.renderError(w, r, http.StatusBadRequest, "Bad Request", "The image could not be read.")
		return postForm{}, false
	}
	defer file.Close()

	upload, err := readUpload(file, header)
	if err != nil {
		h.InternalError(w, r, err)
		return postForm{}, false
	}
	form.upload = upload

	return form, true
}

func readUpload(file multipart.File, header *multipart.FileHeader) (*media.Upload, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &media.Upload{
		Data:        data,
		ContentType: contentType,
		Filename:    header.Filename,
	}, nil
}

func validatePostForm(form postForm) string {
	switch {
	case form.title == "":
		return "A title is required."
	case len(form.title) > 200:
		return "The title is too long (200 characters max)."
	case form.body == "":
		return "A post body is required."
	case len(form.body) > 10000:
		return "The post body is too long (10000 characters max)."
	case form.upload != nil && !strings.HasPrefix(strings.ToLower(form.upload.ContentType), "image/"):
		return "The file must be an image."
	}
	return ""
}

// uploadErrorMessage maps lifecycle errors to a status code and a message fit
// for the form. internal=true means the user gets the generic 500 page.
func uploadErrorMessage(err error, maxUploadBytes int64) (code int, msg string, internal bool) {
	switch {
	case errors.Is(err, media.ErrNoFile):
		return http.StatusBadRequest, "Please attach an image.", false
	case errors.Is(err, media.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge,
			fmt.Sprintf("The image is too large (%d MB max).", maxUploadBytes/(1024*1024)), false
	case errors.Is(err, storage.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Image uploads are temporarily unavailable.", false
	case errors.Is(err, storage.ErrUploadFailed):
		return http.StatusBadGateway, "The image could not be stored. Please try again.", false
	case errors.Is(err, storage.ErrCheckViolation):
		return http.StatusBadRequest, "The post contents are invalid.", false
	default:
		return http.StatusInternalServerError, "", true
	}
}

func (h *BlogHandler) postFromPath(w http.ResponseWriter, r *http.Request) (*storage.Post, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.NotFound(w, r)
		return nil, false
	}

	post, err := h.DB.GetPostByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			h.NotFound(w, r)
		default:
			h.InternalError(w, r, err)
		}
		return nil, false
	}

	return post, true
}

func (h *BlogHandler) logCleanup(r *http.Request, op string, cleanup media.Cleanup) {
	if !cleanup.Attempted() {
		return
	}
	if cleanup.Failed() {
		h.Logger.Warn("orphaned object left in store", "op", op, "key", cleanup.Key, "err", cleanup.Err)
		return
	}
	h.Logger.Debug("old object removed", "op", op, "key", cleanup.Key)
}
