package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/lms/internal/database"
)

const maxBodyBytes = 1 << 20

// APICourseList returns all courses as JSON
func (h *Handlers) APICourseList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.db.ListCourses()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list courses")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, courses)
}

// APICourseCreate creates a course from a JSON body
func (h *Handlers) APICourseCreate(w http.ResponseWriter, r *http.Request) {
	var in database.NewCourse
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	course, err := h.db.CreateCourse(in)
	if err != nil {
		var vErr *database.ValidationError
		if errors.As(err, &vErr) {
			h.jsonError(w, vErr.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("Failed to create course")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Respond with the stored row
	saved, err := h.db.GetCourse(course.ID)
	if err != nil {
		log.Error().Err(err).Int64("id", course.ID).Msg("Failed to reload course")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if saved != nil {
		course = saved
	}

	log.Info().Int64("id", course.ID).Str("title", course.Title).Msg("Course created")
	h.writeJSON(w, http.StatusCreated, course)
}

// APICourseStudents returns the students enrolled in a course as JSON
func (h *Handlers) APICourseStudents(w http.ResponseWriter, r *http.Request) {
	courseID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		h.jsonError(w, "invalid course id", http.StatusBadRequest)
		return
	}

	students, err := h.db.ListStudentsForCourse(courseID)
	if err != nil {
		log.Error().Err(err).Int64("course_id", courseID).Msg("Failed to list students")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, students)
}

// Health reports whether the store is reachable
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
