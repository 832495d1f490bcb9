package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type Course struct {
	ID           CourseId     `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Requirements *Requirement `json:"requirements,omitempty"`
}

// Equal compares courses by id alone.
func (c Course) Equal(other Course) bool {
	return c.ID == other.ID
}

// ReadCourses decodes a stream of JSON course objects, one after another.
func ReadCourses(r io.Reader) ([]Course, error) {
	decoder := json.NewDecoder(r)

	var courses []Course
	for {
		var course Course
		err := decoder.Decode(&course)
		if errors.Is(err, io.EOF) {
			return courses, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode course %d: %w", len(courses)+1, err)
		}
		courses = append(courses, course)
	}
}

// WriteCourses writes one JSON object per line.
func WriteCourses(w io.Writer, courses []Course) error {
	encoder := json.NewEncoder(w)
	for _, course := range courses {
		if err := encoder.Encode(course); err != nil {
			return fmt.Errorf("encode %v: %w", course.ID, err)
		}
	}
	return nil
}
