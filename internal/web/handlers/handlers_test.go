package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/lms/internal/database"
)

const testBase = `{{define "base"}}<title>{{.Title}}</title>{{.Flash}}{{.FlashErr}}{{template "content" .Content}}{{end}}`

var testPages = map[string]string{
	"index.html":         `{{define "content"}}{{range .Courses}}<li>{{.Title}}</li>{{end}}{{end}}`,
	"course.html":        `{{define "content"}}<h1>{{.Course.Title}}</h1>{{range .Students}}<li>{{.Name}}</li>{{end}}{{end}}`,
	"create_course.html": `{{define "content"}}<form>{{.Error}}<input value="{{.Title}}">{{.Description}}</form>{{end}}`,
	"not_found.html":     `{{define "content"}}not found{{end}}`,
}

func testTemplates(t *testing.T) map[string]*template.Template {
	t.Helper()
	templates := make(map[string]*template.Template, len(testPages))
	for name, page := range testPages {
		tmpl := template.Must(template.New("").Parse(testBase))
		templates[name] = template.Must(tmpl.Parse(page))
	}
	return templates
}

func testRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.CourseList)
	r.Get("/courses/{id}", h.CourseDetail)
	r.Get("/create_course", h.CourseNew)
	r.Post("/create_course", h.CourseCreate)
	r.Post("/enroll", h.Enroll)
	r.Post("/select_course", h.SelectCourse)
	r.Get("/seed", h.Seed)
	r.Get("/healthz", h.Health)
	r.Route("/api/courses", func(r chi.Router) {
		r.Get("/", h.APICourseList)
		r.Post("/", h.APICourseCreate)
		r.Get("/{id}/students", h.APICourseStudents)
	})
	return r
}

func setupTestHandlers(t *testing.T) (http.Handler, *database.DB) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return testRouter(New(db, testTemplates(t))), db
}

func do(t *testing.T, h http.Handler, method, target, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodPost, target, form.Encode(), "application/x-www-form-urlencoded")
}

func flashCookie(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.MaxAge > 0 {
			return readFlash(c.Value)
		}
	}
	return ""
}

func TestAPICourseCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantJSON   string
	}{
		{
			name:       "title only",
			body:       `{"title": "Art"}`,
			wantStatus: http.StatusCreated,
			wantJSON:   `{"id": 1, "title": "Art", "description": ""}`,
		},
		{
			name:       "empty object",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantJSON:   `{"error": "title required"}`,
		},
		{
			name:       "empty title",
			body:       `{"title": "", "description": "x"}`,
			wantStatus: http.StatusBadRequest,
			wantJSON:   `{"error": "title required"}`,
		},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantJSON:   `{"error": "title required"}`,
		},
		{
			name:       "malformed JSON",
			body:       `{"title": `,
			wantStatus: http.StatusBadRequest,
			wantJSON:   `{"error": "invalid JSON body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t)

			rec := do(t, h, http.MethodPost, "/api/courses", tt.body, "application/json")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantJSON, rec.Body.String())
		})
	}
}

func TestAPICourseList(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := do(t, h, http.MethodGet, "/api/courses", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	do(t, h, http.MethodPost, "/api/courses", `{"title":"Art","description":"Painting"}`, "application/json")
	do(t, h, http.MethodPost, "/api/courses", `{"title":"Music"}`, "application/json")

	rec = do(t, h, http.MethodGet, "/api/courses", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id": 1, "title": "Art", "description": "Painting"},
		{"id": 2, "title": "Music", "description": ""}
	]`, rec.Body.String())
}

func TestAPICourseList_StoreFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT id, title, description FROM courses").
		WillReturnError(errors.New("database is locked"))

	h := testRouter(New(&database.DB{DB: conn}, testTemplates(t)))
	rec := do(t, h, http.MethodGet, "/api/courses", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "internal server error"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPICourseStudents(t *testing.T) {
	h, db := setupTestHandlers(t)

	full, err := db.CreateCourse(database.NewCourse{Title: "Full"})
	require.NoError(t, err)
	empty, err := db.CreateCourse(database.NewCourse{Title: "Empty"})
	require.NoError(t, err)

	_, _, err = db.EnrollStudent("Ana", "ana@x.com", full.ID)
	require.NoError(t, err)
	_, _, err = db.EnrollStudent("Ben", "ben@x.com", full.ID)
	require.NoError(t, err)

	t.Run("two enrolled students", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/courses/"+strconv.FormatInt(full.ID, 10)+"/students", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[
			{"id": 1, "name": "Ana", "email": "ana@x.com"},
			{"id": 2, "name": "Ben", "email": "ben@x.com"}
		]`, rec.Body.String())
	})

	t.Run("no students is an empty array", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/courses/"+strconv.FormatInt(empty.ID, 10)+"/students", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})

	t.Run("non-numeric id", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/courses/abc/students", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "invalid course id"}`, rec.Body.String())
	})
}

func TestCourseCreate(t *testing.T) {
	t.Run("missing title redisplays the form", func(t *testing.T) {
		h, db := setupTestHandlers(t)

		rec := postForm(t, h, "/create_course", url.Values{"description": {"kept"}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Title is required")
		assert.Contains(t, rec.Body.String(), "kept")

		count, err := db.CountCourses()
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("valid course redirects to list", func(t *testing.T) {
		h, _ := setupTestHandlers(t)

		rec := postForm(t, h, "/create_course", url.Values{"title": {"Physics"}, "description": {"Motion"}})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.Contains(t, flashCookie(rec, "flash"), "Physics")

		rec = do(t, h, http.MethodGet, "/", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<li>Physics</li>")
	})
}

func TestCourseNew(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := do(t, h, http.MethodGet, "/create_course", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<form>")
	assert.Contains(t, rec.Body.String(), "<title>Create Course - LMS</title>")
}

func TestCourseDetail(t *testing.T) {
	h, db := setupTestHandlers(t)

	course, err := db.CreateCourse(database.NewCourse{Title: "Physics"})
	require.NoError(t, err)

	t.Run("unknown course is not found", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/courses/999", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not found")
	})

	t.Run("non-numeric id is not found", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/courses/physics", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("known course renders", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, coursePath(course.ID), "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<h1>Physics</h1>")
	})
}

func TestEnroll(t *testing.T) {
	h, db := setupTestHandlers(t)

	course, err := db.CreateCourse(database.NewCourse{Title: "Physics"})
	require.NoError(t, err)
	courseID := strconv.FormatInt(course.ID, 10)

	t.Run("enrolling twice keeps one row", func(t *testing.T) {
		form := url.Values{"name": {"Ana"}, "email": {"ana@x.com"}, "course_id": {courseID}}

		rec := postForm(t, h, "/enroll", form)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, coursePath(course.ID), rec.Header().Get("Location"))
		assert.Equal(t, "Ana enrolled in Physics", flashCookie(rec, "flash"))

		rec = postForm(t, h, "/enroll", form)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "Ana is already enrolled", flashCookie(rec, "flash"))

		count, err := db.CountEnrollments(course.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		rec = do(t, h, http.MethodGet, coursePath(course.ID), "", "")
		assert.Equal(t, 1, strings.Count(rec.Body.String(), "<li>Ana</li>"))
	})

	t.Run("missing name", func(t *testing.T) {
		rec := postForm(t, h, "/enroll", url.Values{"course_id": {courseID}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, coursePath(course.ID), rec.Header().Get("Location"))
		assert.Equal(t, "Name is required", flashCookie(rec, "flash_err"))
	})

	t.Run("non-numeric course id", func(t *testing.T) {
		rec := postForm(t, h, "/enroll", url.Values{"name": {"Ana"}, "course_id": {"abc"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("unknown course", func(t *testing.T) {
		rec := postForm(t, h, "/enroll", url.Values{"name": {"Ana"}, "course_id": {"999"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.Equal(t, "Course not found", flashCookie(rec, "flash_err"))
	})
}

func TestSelectCourse(t *testing.T) {
	h, _ := setupTestHandlers(t)

	tests := []struct {
		name     string
		form     url.Values
		location string
	}{
		{name: "numeric id", form: url.Values{"course_id": {"3"}}, location: "/courses/3"},
		{name: "missing id", form: url.Values{}, location: "/"},
		{name: "empty id", form: url.Values{"course_id": {""}}, location: "/"},
		{name: "non-numeric id", form: url.Values{"course_id": {"three"}}, location: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, h, "/select_course", tt.form)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestSeed(t *testing.T) {
	h, db := setupTestHandlers(t)

	for range 2 {
		rec := do(t, h, http.MethodGet, "/seed", "", "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	}

	count, err := db.CountCourses()
	require.NoError(t, err)
	assert.Equal(t, len(database.SampleCourses), count)
}

func TestFlashIsShownOnce(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "flash", Value: "Course%20%22Art%22%20created"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "Course &#34;Art&#34; created")

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "flash" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "flash cookie should be cleared after display")
}

func TestHealth(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}
