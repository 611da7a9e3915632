package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/lms/internal/database"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *database.DB
	templates map[string]*template.Template
}

// New creates a new Handlers instance
func New(db *database.DB, templates map[string]*template.Template) *Handlers {
	return &Handlers{
		db:        db,
		templates: templates,
	}
}

// PageData contains common data for all pages
type PageData struct {
	Title    string
	Flash    string
	FlashErr string
	Content  any
}

// render renders a page template with common data
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	h.renderStatus(w, r, http.StatusOK, name, "", data)
}

// renderStatus renders a page template with an explicit status code and title
func (h *Handlers) renderStatus(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	pageData := PageData{
		Title:   "LMS",
		Content: data,
	}
	if title != "" {
		pageData.Title = title + " - LMS"
	}

	// Flash messages are one-shot cookies
	if cookie, err := r.Cookie("flash"); err == nil {
		pageData.Flash = readFlash(cookie.Value)
		http.SetCookie(w, &http.Cookie{Name: "flash", MaxAge: -1, Path: "/"})
	}
	if cookie, err := r.Cookie("flash_err"); err == nil {
		pageData.FlashErr = readFlash(cookie.Value)
		http.SetCookie(w, &http.Cookie{Name: "flash_err", MaxAge: -1, Path: "/"})
	}

	tmpl, ok := h.templates[name]
	if !ok {
		log.Error().Str("template", name).Msg("Template not found")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Render into a buffer first so a template failure can still produce a 500
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", pageData); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// notFound renders the not found page
func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderStatus(w, r, http.StatusNotFound, "not_found.html", "Not Found", nil)
}

// serverError logs err and sends a plain 500 response
func (h *Handlers) serverError(w http.ResponseWriter, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// flash sets a flash message
func (h *Handlers) flash(w http.ResponseWriter, message string) {
	setFlash(w, "flash", message)
}

// flashErr sets an error flash message
func (h *Handlers) flashErr(w http.ResponseWriter, message string) {
	setFlash(w, "flash_err", message)
}

func setFlash(w http.ResponseWriter, name, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func readFlash(value string) string {
	msg, err := url.QueryUnescape(value)
	if err != nil {
		return value
	}
	return msg
}

// redirect redirects to a URL
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// writeJSON sends v as a JSON response with the given status
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// jsonError sends a JSON error response
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// parseID parses an integer identifier, reporting false when s is missing
// or non-numeric
func parseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func coursePath(id int64) string {
	return "/courses/" + strconv.FormatInt(id, 10)
}
