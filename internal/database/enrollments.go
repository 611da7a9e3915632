package database

import (
	"database/sql"
	"fmt"
)

// Enroll links a student to a course. It is a no-op when the pair is already
// enrolled and reports whether a new row was inserted.
func (db *DB) Enroll(studentID, courseID int64) (bool, error) {
	var created bool
	err := db.Transaction(func(tx *sql.Tx) error {
		var err error
		created, err = enroll(tx, studentID, courseID)
		return err
	})
	return created, err
}

// EnrollStudent finds or creates the student identified by name and email
// and enrolls them in the course, committing both writes together.
func (db *DB) EnrollStudent(name, email string, courseID int64) (*Student, bool, error) {
	if err := validateInput(studentKey{Name: name, Email: email}); err != nil {
		return nil, false, err
	}

	var (
		student *Student
		created bool
	)
	err := db.Transaction(func(tx *sql.Tx) error {
		var err error
		student, err = findOrCreateStudent(tx, name, email)
		if err != nil {
			return err
		}
		created, err = enroll(tx, student.ID, courseID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return student, created, nil
}

// CountEnrollments returns the number of enrollment rows for a course.
func (db *DB) CountEnrollments(courseID int64) (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM enrollments WHERE course_id = ?", courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return count, nil
}

func enroll(q querier, studentID, courseID int64) (bool, error) {
	var exists int
	err := q.QueryRow(`
		SELECT 1 FROM enrollments WHERE student_id = ? AND course_id = ? LIMIT 1
	`, studentID, courseID).Scan(&exists)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}

	if _, err := q.Exec("INSERT INTO enrollments (student_id, course_id) VALUES (?, ?)", studentID, courseID); err != nil {
		return false, fmt.Errorf("failed to create enrollment: %w", err)
	}
	return true, nil
}
