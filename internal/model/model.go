package model

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies which profile table a session resolves against.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleParent  Role = "PARENT"
)

// ParseRole normalizes a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleParent:
		return RoleParent, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// AttendanceStatus is the canonical two-value attendance state.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusAbsent  AttendanceStatus = "ABSENT"
)

// ParseAttendanceStatus accepts the loose textual variants the clients send
// ("Present", "PRESENT", "1", "Absent", "ABSENT", "0") and returns the
// canonical value. Everything else is an error.
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PRESENT", "1":
		return StatusPresent, nil
	case "ABSENT", "0":
		return StatusAbsent, nil
	default:
		return "", fmt.Errorf("unknown attendance status %q", s)
	}
}

// Person is the shared identity row; its ID doubles as the foreign key into
// whichever role profile applies.
type Person struct {
	PersonID  string    `json:"personId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// FullName joins first and last name for display.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Teacher profile, 1:1 with a Person.
type Teacher struct {
	TeacherID string  `json:"teacherId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
}

// Student profile, keyed by admission number.
type Student struct {
	AdmissionNumber string     `json:"admissionNumber"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	ClassLevel      string     `json:"classLevel"`
	ParentID        *string    `json:"parentId,omitempty"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
}

// FullName joins first and last name for display.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Parent profile, 1:1 with a Person; children link back via Student.ParentID.
type Parent struct {
	ParentID   string  `json:"parentId"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Phone      *string `json:"phone,omitempty"`
	Occupation *string `json:"occupation,omitempty"`
}

// Class groups students at one level.
type Class struct {
	ClassID    string `json:"classId"`
	ClassName  string `json:"className"`
	ClassLevel string `json:"classLevel"`
}

// Subject is owned by the teacher whose ID matches TeacherID; ownership gates
// all grade and attendance writes for the subject.
type Subject struct {
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	TeacherID   string `json:"teacherId"`
	ClassLevel  string `json:"classLevel"`
}

// AttendanceRecord is one (student, subject, day) attendance row.
type AttendanceRecord struct {
	AttendanceID string           `json:"attendanceId"`
	StudentID    string           `json:"studentId"`
	SubjectID    string           `json:"subjectId"`
	Date         time.Time        `json:"date"`
	Status       AttendanceStatus `json:"status"`
	StudentName  string           `json:"studentName,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Grade holds continuous-assessment and exam scores per (student, subject, term).
type Grade struct {
	GradeID   string  `json:"gradeId"`
	StudentID string  `json:"studentId"`
	SubjectID string  `json:"subjectId"`
	Term      string  `json:"term"`
	CAScore   float64 `json:"caScore"`
	ExamScore float64 `json:"examScore"`
	Total     float64 `json:"total"`
	Letter    string  `json:"letter"`
}

// LetterFor maps a total score to the report-card letter.
func LetterFor(total float64) string {
	switch {
	case total >= 70:
		return "A"
	case total >= 60:
		return "B"
	case total >= 50:
		return "C"
	case total >= 45:
		return "D"
	case total >= 40:
		return "E"
	default:
		return "F"
	}
}

// Registration enrolls a student in a subject for a term.
type Registration struct {
	RegistrationID string    `json:"registrationId"`
	StudentID      string    `json:"studentId"`
	SubjectID      string    `json:"subjectId"`
	Term           string    `json:"term"`
	RegisteredAt   time.Time `json:"registeredAt"`
}

// Payment records a fee payment by or for a student.
type Payment struct {
	PaymentID string    `json:"paymentId"`
	StudentID string    `json:"studentId"`
	Amount    float64   `json:"amount"`
	Purpose   string    `json:"purpose"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	PaidAt    time.Time `json:"paidAt"`
}

// Notification is an absence notice addressed to a parent.
type Notification struct {
	NotificationID string    `json:"notificationId"`
	ParentID       string    `json:"parentId"`
	StudentID      string    `json:"studentId"`
	SubjectID      string    `json:"subjectId"`
	Date           time.Time `json:"date"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}
