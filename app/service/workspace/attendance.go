package workspace

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

var (
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidStatus   = errors.New("invalid attendance status")
	ErrInvalidDate     = errors.New("invalid attendance date")
	ErrEmptyClassName  = errors.New("class name is empty")
)

type AttendanceStatus string

const (
	Present AttendanceStatus = "Present"
	Absent  AttendanceStatus = "Absent"
)

type Class struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Enrollment string `json:"enrollment"`
	ClassID    string `json:"classId"`
}

// NewStudent is one row of a batch import.
type NewStudent struct {
	Name       string `json:"name"`
	Enrollment string `json:"enrollment"`
}

// Attendance maps a date to the status of every marked student on it.
type Attendance map[string]map[string]AttendanceStatus

func (a Attendance) clone() Attendance {
	result := make(Attendance, len(a))
	for date, day := range a {
		result[date] = maps.Clone(day)
	}

	return result
}

// without drops the given students and every date left empty.
func (a Attendance) without(ids []string) Attendance {
	result := a.clone()
	for date, day := range result {
		for _, id := range ids {
			delete(day, id)
		}
		if len(day) == 0 {
			delete(result, date)
		}
	}

	return result
}

func (s *Service) AddClass(ctx context.Context, name string) (*Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyClassName
	}

	class := Class{ID: uuid.NewString(), Name: name}

	classes := append(slices.Clone(s.classes), class)
	if err := s.save(ctx, keyClasses, classes); err != nil {
		return nil, err
	}
	s.classes = classes

	return &class, nil
}

// DeleteClass removes the class together with its students and their attendance.
func (s *Service) DeleteClass(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.classIndex(id) < 0 {
		return oops.In("workspace").With("class", id).Wrap(ErrClassNotFound)
	}

	removed := pie.Map(
		pie.Filter(s.students, func(st Student) bool { return st.ClassID == id }),
		func(st Student) string { return st.ID },
	)

	attendance := s.attendance.without(removed)
	students := pie.Filter(s.students, func(st Student) bool { return st.ClassID != id })
	classes := pie.Filter(s.classes, func(c Class) bool { return c.ID != id })

	if err := s.save(ctx, keyAttendance, attendance); err != nil {
		return err
	}
	if err := s.save(ctx, keyStudents, students); err != nil {
		return err
	}
	if err := s.save(ctx, keyClasses, classes); err != nil {
		return err
	}

	s.attendance = attendance
	s.students = students
	s.classes = classes

	return nil
}

func (s *Service) AddStudent(ctx context.Context, classID, name, enrollment string) (*Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.classIndex(classID) < 0 {
		return nil, oops.In("workspace").With("class", classID).Wrap(ErrClassNotFound)
	}

	student := Student{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(name),
		Enrollment: strings.TrimSpace(enrollment),
		ClassID:    classID,
	}

	students := append(slices.Clone(s.students), student)
	if err := s.save(ctx, keyStudents, students); err != nil {
		return nil, err
	}
	s.students = students

	return &student, nil
}

// AddStudentsBatch imports rows into a class, skipping enrollment numbers the
// class already has, and reports how many were added.
func (s *Service) AddStudentsBatch(ctx context.Context, classID string, rows []NewStudent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.classIndex(classID) < 0 {
		return "", oops.In("workspace").With("class", classID).Wrap(ErrClassNotFound)
	}

	seen := make(map[string]struct{})
	for _, st := range s.students {
		if st.ClassID == classID {
			seen[st.Enrollment] = struct{}{}
		}
	}

	added := make([]Student, 0, len(rows))
	for _, row := range rows {
		enrollment := strings.TrimSpace(row.Enrollment)
		if _, ok := seen[enrollment]; ok {
			continue
		}
		seen[enrollment] = struct{}{}

		added = append(added, Student{
			ID:         uuid.NewString(),
			Name:       strings.TrimSpace(row.Name),
			Enrollment: enrollment,
			ClassID:    classID,
		})
	}

	if len(added) > 0 {
		students := append(slices.Clone(s.students), added...)
		if err := s.save(ctx, keyStudents, students); err != nil {
			return "", err
		}
		s.students = students
	}

	message := fmt.Sprintf("Successfully imported %d new students.", len(added))
	if skipped := len(rows) - len(added); skipped > 0 {
		message += fmt.Sprintf(" Skipped %d students with duplicate enrollment numbers.", skipped)
	}

	return message, nil
}

func (s *Service) DeleteStudent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.studentIndex(id) < 0 {
		return oops.In("workspace").With("student", id).Wrap(ErrStudentNotFound)
	}

	attendance := s.attendance.without([]string{id})
	students := pie.Filter(s.students, func(st Student) bool { return st.ID != id })

	if err := s.save(ctx, keyAttendance, attendance); err != nil {
		return err
	}
	if err := s.save(ctx, keyStudents, students); err != nil {
		return err
	}

	s.attendance = attendance
	s.students = students

	return nil
}

func (s *Service) SetAttendance(ctx context.Context, date, studentID string, status AttendanceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status != Present && status != Absent {
		return oops.In("workspace").With("status", status).Wrap(ErrInvalidStatus)
	}
	if s.studentIndex(studentID) < 0 {
		return oops.In("workspace").With("student", studentID).Wrap(ErrStudentNotFound)
	}
	if date == "" {
		date = s.today()
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return oops.In("workspace").With("date", date).Wrap(ErrInvalidDate)
	}

	attendance := s.attendance.clone()
	if attendance[date] == nil {
		attendance[date] = make(map[string]AttendanceStatus)
	}
	attendance[date][studentID] = status

	if err := s.save(ctx, keyAttendance, attendance); err != nil {
		return err
	}
	s.attendance = attendance

	return nil
}

func (s *Service) classIndex(id string) int {
	return pie.FindFirstUsing(s.classes, func(c Class) bool { return c.ID == id })
}

func (s *Service) studentIndex(id string) int {
	return pie.FindFirstUsing(s.students, func(st Student) bool { return st.ID == id })
}
