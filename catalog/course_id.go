package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MinClassNumber = 100
	MaxClassNumber = 999
)

var (
	ErrMissingSubject = errors.New("course id is missing a subject")
	ErrMissingNumber  = errors.New("course id is missing a class number")
	ErrNumberRange    = fmt.Errorf("class number must be between %d and %d", MinClassNumber, MaxClassNumber)
)

// CourseId identifies a course by its subject and class number. Subjects are
// stored uppercase and may contain spaces ("EN PH").
type CourseId struct {
	Subject string `json:"subject_id"`
	Number  uint16 `json:"class_id"`
}

// ParseCourseId reads "SUBJECT NUMBER". The last whitespace separated token is
// the number and everything before it is the subject.
func ParseCourseId(s string) (CourseId, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return CourseId{}, ErrMissingSubject
	case 1:
		if _, err := strconv.Atoi(fields[0]); err == nil {
			return CourseId{}, ErrMissingSubject
		}
		return CourseId{}, ErrMissingNumber
	}

	return NewCourseId(strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1])
}

// NewCourseId normalises an already split subject and number.
func NewCourseId(subject, number string) (CourseId, error) {
	subject = strings.ToUpper(strings.Join(strings.Fields(subject), " "))
	if subject == "" {
		return CourseId{}, ErrMissingSubject
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return CourseId{}, ErrMissingNumber
	}

	n, err := strconv.Atoi(number)
	if err != nil {
		return CourseId{}, fmt.Errorf("parse class number %q: %w", number, err)
	}
	if n < MinClassNumber || n > MaxClassNumber {
		return CourseId{}, fmt.Errorf("%q: %w", number, ErrNumberRange)
	}

	return CourseId{Subject: subject, Number: uint16(n)}, nil
}

func MustParseCourseId(s string) CourseId {
	id, err := ParseCourseId(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (c CourseId) String() string {
	return fmt.Sprintf("%v %v", c.Subject, c.Number)
}

// Compare orders by subject first so a subject's courses sort together.
func (c CourseId) Compare(other CourseId) int {
	if n := strings.Compare(c.Subject, other.Subject); n != 0 {
		return n
	}
	return cmp.Compare(c.Number, other.Number)
}

func (c CourseId) Less(other CourseId) bool {
	return c.Compare(other) < 0
}
