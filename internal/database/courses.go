package database

import (
	"database/sql"
	"fmt"
)

// Course is a unit of instruction offered by the administrator.
type Course struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewCourse holds the fields accepted when creating a course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// ListCourses returns every course in insertion order.
func (db *DB) ListCourses() ([]Course, error) {
	rows, err := db.Query("SELECT id, title, description FROM courses ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	courses := make([]Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}

	return courses, rows.Err()
}

// GetCourse retrieves a course by ID. It returns nil when no row exists.
func (db *DB) GetCourse(id int64) (*Course, error) {
	return getCourse(db, id)
}

// CreateCourse validates and inserts a new course.
func (db *DB) CreateCourse(in NewCourse) (*Course, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return createCourse(db, in)
}

// CountCourses returns the number of courses.
func (db *DB) CountCourses() (int, error) {
	return countCourses(db)
}

func getCourse(q querier, id int64) (*Course, error) {
	c, err := scanCourse(q.QueryRow("SELECT id, title, description FROM courses WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func createCourse(q querier, in NewCourse) (*Course, error) {
	result, err := q.Exec("INSERT INTO courses (title, description) VALUES (?, ?)", in.Title, in.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get course id: %w", err)
	}

	return &Course{ID: id, Title: in.Title, Description: in.Description}, nil
}

func countCourses(q querier) (int, error) {
	var count int
	if err := q.QueryRow("SELECT COUNT(*) FROM courses").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*Course, error) {
	var c Course
	var description sql.NullString
	if err := row.Scan(&c.ID, &c.Title, &description); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	c.Description = nullStringValue(description)
	return &c, nil
}
