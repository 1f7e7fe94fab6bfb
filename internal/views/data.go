package views

import (
	"html/template"

	"snapblog/internal/content"
	"snapblog/internal/storage"
)

// Common is the data every page needs: nav state and the CSRF token for
// forms.
type Common struct {
	BlogTitle string
	Username  string
	CSRFToken string
}

type HomeData struct {
	Common
	Posts []*storage.Post
}

type PostData struct {
	Common
	Post     *storage.Post
	BodyHTML template.HTML
	Comments []*storage.Comment
	IsOwner  bool
}

// PostFormData carries the create/edit form, including the user's submitted
// values so a validation failure never loses their text.
type PostFormData struct {
	Common
	Heading    string
	Action     string
	Title      string
	Body       string
	FieldError string
}

// AuthData backs the login and register forms. Prefill is the submitted
// username echoed back on a validation failure; it is deliberately not the
// session username from Common.
type AuthData struct {
	Common
	Prefill string
	Error   string
}

type ErrorData struct {
	Common
	Code    int
	Heading string
	Message string
}

type PageData struct {
	Common
	Page *content.Page
}
