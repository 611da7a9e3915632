package database

import (
	"database/sql"
	"fmt"
)

// Student is a person identified by an exact (name, email) pair.
type Student struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type studentKey struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email"`
}

// FindOrCreateStudent returns the student matching name and email exactly,
// inserting one when none exists. Whitespace and case variants are treated
// as different students.
func (db *DB) FindOrCreateStudent(name, email string) (*Student, error) {
	if err := validateInput(studentKey{Name: name, Email: email}); err != nil {
		return nil, err
	}

	var student *Student
	err := db.Transaction(func(tx *sql.Tx) error {
		var err error
		student, err = findOrCreateStudent(tx, name, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// ListStudentsForCourse returns the students enrolled in a course in
// enrollment order. Unknown courses yield an empty slice.
func (db *DB) ListStudentsForCourse(courseID int64) ([]Student, error) {
	rows, err := db.Query(`
		SELECT s.id, s.name, s.email
		FROM students s
		JOIN enrollments e ON e.student_id = s.id
		WHERE e.course_id = ?
		ORDER BY e.id
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students for course %d: %w", courseID, err)
	}
	defer rows.Close()

	students := make([]Student, 0)
	for rows.Next() {
		var s Student
		var email sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &email); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		s.Email = nullStringValue(email)
		students = append(students, s)
	}

	return students, rows.Err()
}

func findOrCreateStudent(q querier, name, email string) (*Student, error) {
	s := &Student{}
	var storedEmail sql.NullString
	err := q.QueryRow(`
		SELECT id, name, email FROM students WHERE name = ? AND email = ?
		ORDER BY id LIMIT 1
	`, name, email).Scan(&s.ID, &s.Name, &storedEmail)
	if err == nil {
		s.Email = nullStringValue(storedEmail)
		return s, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find student: %w", err)
	}

	result, err := q.Exec("INSERT INTO students (name, email) VALUES (?, ?)", name, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get student id: %w", err)
	}

	return &Student{ID: id, Name: name, Email: email}, nil
}
