package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/lms/internal/database"
)

// Enroll finds or creates the student from the form and enrolls them in the
// course. Repeating the same enrollment is a no-op.
func (h *Handlers) Enroll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form data")
		h.redirect(w, r, "/")
		return
	}

	courseID, ok := parseID(r.FormValue("course_id"))
	if !ok {
		h.flashErr(w, "Invalid course")
		h.redirect(w, r, "/")
		return
	}

	course, err := h.db.GetCourse(courseID)
	if err != nil {
		h.serverError(w, err, "Failed to get course")
		return
	}
	if course == nil {
		h.flashErr(w, "Course not found")
		h.redirect(w, r, "/")
		return
	}

	name := r.FormValue("name")
	email := r.FormValue("email")

	student, created, err := h.db.EnrollStudent(name, email, courseID)
	if err != nil {
		var vErr *database.ValidationError
		if errors.As(err, &vErr) {
			h.flashErr(w, "Name is required")
			h.redirect(w, r, coursePath(courseID))
			return
		}
		h.serverError(w, err, "Failed to enroll student")
		return
	}

	if created {
		log.Info().
			Int64("student_id", student.ID).
			Int64("course_id", courseID).
			Msg("Student enrolled")
		h.flash(w, fmt.Sprintf("%s enrolled in %s", student.Name, course.Title))
	} else {
		h.flash(w, fmt.Sprintf("%s is already enrolled", student.Name))
	}

	h.redirect(w, r, coursePath(courseID))
}
