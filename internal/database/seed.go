package database

import (
	"database/sql"

	"github.com/rs/zerolog/log"
)

// SampleCourses are inserted by Seed into an empty courses table.
var SampleCourses = []NewCourse{
	{Title: "Math", Description: "Fundamentals of mathematics."},
	{Title: "Science", Description: "Introduction to basic sciences."},
	{Title: "History", Description: "World history overview."},
	{Title: "Programming", Description: "Intro to programming with Python."},
}

// Seed inserts SampleCourses when no course exists yet and returns how many
// were added. Calling it again once any course exists does nothing.
func (db *DB) Seed() (int, error) {
	inserted := 0
	err := db.Transaction(func(tx *sql.Tx) error {
		count, err := countCourses(tx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, c := range SampleCourses {
			if _, err := createCourse(tx, c); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		log.Info().Int("courses", inserted).Msg("Seeded sample courses")
	}
	return inserted, nil
}
