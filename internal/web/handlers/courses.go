package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/lms/internal/database"
)

// CourseList renders the course list page
func (h *Handlers) CourseList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.db.ListCourses()
	if err != nil {
		h.serverError(w, err, "Failed to list courses")
		return
	}

	h.render(w, r, "index.html", map[string]any{
		"Courses": courses,
	})
}

// CourseDetail renders one course with its enrolled students
func (h *Handlers) CourseDetail(w http.ResponseWriter, r *http.Request) {
	courseID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		h.notFound(w, r)
		return
	}

	course, err := h.db.GetCourse(courseID)
	if err != nil {
		h.serverError(w, err, "Failed to get course")
		return
	}
	if course == nil {
		h.notFound(w, r)
		return
	}

	students, err := h.db.ListStudentsForCourse(courseID)
	if err != nil {
		h.serverError(w, err, "Failed to list students")
		return
	}

	h.renderStatus(w, r, http.StatusOK, "course.html", course.Title, map[string]any{
		"Course":   course,
		"Students": students,
	})
}

// courseForm is the data behind the create course form
type courseForm struct {
	Error       string
	Title       string
	Description string
}

// CourseNew renders the create course form
func (h *Handlers) CourseNew(w http.ResponseWriter, r *http.Request) {
	h.renderStatus(w, r, http.StatusOK, "create_course.html", "Create Course", courseForm{})
}

// CourseCreate handles course creation from the form
func (h *Handlers) CourseCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderStatus(w, r, http.StatusBadRequest, "create_course.html", "Create Course", courseForm{
			Error: "Invalid form data",
		})
		return
	}

	in := database.NewCourse{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	course, err := h.db.CreateCourse(in)
	if err != nil {
		var vErr *database.ValidationError
		if errors.As(err, &vErr) {
			h.renderStatus(w, r, http.StatusBadRequest, "create_course.html", "Create Course", courseForm{
				Error:       "Title is required",
				Title:       in.Title,
				Description: in.Description,
			})
			return
		}
		h.serverError(w, err, "Failed to create course")
		return
	}

	log.Info().Int64("id", course.ID).Str("title", course.Title).Msg("Course created")
	h.flash(w, fmt.Sprintf("Course %q created", course.Title))
	h.redirect(w, r, "/")
}

// SelectCourse redirects to the course picked on the list page
func (h *Handlers) SelectCourse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/")
		return
	}

	courseID, ok := parseID(r.FormValue("course_id"))
	if !ok {
		h.redirect(w, r, "/")
		return
	}

	h.redirect(w, r, coursePath(courseID))
}

// Seed inserts the sample courses when none exist
func (h *Handlers) Seed(w http.ResponseWriter, r *http.Request) {
	inserted, err := h.db.Seed()
	if err != nil {
		log.Error().Err(err).Msg("Failed to seed courses")
		h.flashErr(w, "Failed to seed sample courses")
		h.redirect(w, r, "/")
		return
	}

	if inserted > 0 {
		h.flash(w, fmt.Sprintf("Added %d sample courses", inserted))
	}
	h.redirect(w, r, "/")
}
