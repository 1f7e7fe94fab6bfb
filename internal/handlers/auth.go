package handlers

import (
	"errors"
	"net/http"
	"strings"

	"snapblog/internal/storage"
	"snapblog/internal/views"

	"golang.org/x/crypto/bcrypt"
)

func (h *BlogHandler) HandleRegisterPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// user already logged in, send home
		if h.Sessions.Manager.Exists(r.Context(), "userID") {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		h.render(w, r, "register.html", views.AuthData{Common: h.newCommonData(r)})
	})
}

func (h *BlogHandler) HandleRegister() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// user already logged in, send home
		if h.Sessions.Manager.Exists(r.Context(), "userID") {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		confirm := r.FormValue("confirm_password")

		fail := func(code int, prefill, msg string) {
			w.WriteHeader(code)
			h.render(w, r, "register.html", views.AuthData{
				Common:  h.newCommonData(r),
				Prefill: prefill,
				Error:   msg,
			})
		}

		if password != confirm {
			fail(http.StatusBadRequest, username, "Passwords do not match.")
			return
		}

		if len(username) < 3 || len(password) < 8 {
			fail(http.StatusBadRequest, "", "Inputs too short.")
			return
		}

		hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			h.Logger.Error("hashing password", "err", err)
			h.InternalError(w, r, err)
			return
		}

		if _, err = h.DB.CreateUser(r.Context(), username, string(hashedPwd)); err != nil {
			switch {
			case errors.Is(err, storage.ErrUniqueViolation):
				fail(http.StatusConflict, "", "Username already taken.")
			case errors.Is(err, storage.ErrCheckViolation):
				fail(http.StatusBadRequest, "", "Invalid username or password.")
			default:
				h.InternalError(w, r, err)
			}
			return
		}

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

func (h *BlogHandler) HandleLoginPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// user already logged in, send home
		if h.Sessions.Manager.Exists(r.Context(), "userID") {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		h.render(w, r, "login.html", views.AuthData{Common: h.newCommonData(r)})
	})
}

// HandleLogin processes the login form submission
func (h *BlogHandler) HandleLogin() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// user already logged in, send home
		if h.Sessions.Manager.Exists(r.Context(), "userID") {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")

		reject := func() {
			w.WriteHeader(http.StatusUnauthorized)
			h.render(w, r, "login.html", views.AuthData{
				Common: h.newCommonData(r),
				Error:  "Invalid username or password.",
			})
		}

		user, err := h.DB.GetUserByUsername(r.Context(), username)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				reject()
			default:
				h.Logger.Error("db error on login", "err", err)
				h.InternalError(w, r, err)
			}
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			reject()
			return
		}

		if err := h.Sessions.Manager.RenewToken(r.Context()); err != nil {
			h.Logger.Error("session token renewal", "err", err)
			h.InternalError(w, r, err)
			return
		}

		h.Sessions.Manager.Put(r.Context(), "userID", user.ID)
		h.Sessions.Manager.Put(r.Context(), "username", user.Username)

		h.Logger.Info("user logged in", "id", user.ID, "username", user.Username)

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

func (h *BlogHandler) HandleLogout() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// destroy session in db and clear cookie
		if err := h.Sessions.Manager.Destroy(r.Context()); err != nil {
			h.Logger.Error("destroy session", "err", err)
			h.InternalError(w, r, err)
			return
		}

		h.Logger.Info("user logged out")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}
