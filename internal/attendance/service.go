package attendance

import (
	"context"
	"time"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// Store is the persistence surface the service needs; *Repository satisfies
// it and tests substitute an in-memory fake.
type Store interface {
	Upsert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, bool, error)
	Get(ctx context.Context, attendanceID string) (*model.AttendanceRecord, error)
	ListForSubjects(ctx context.Context, subjectIDs []string) ([]model.AttendanceRecord, error)
	ListForStudents(ctx context.Context, studentIDs []string) ([]model.AttendanceRecord, error)
	MarkedStudentIDs(ctx context.Context, subjectID string, date string) ([]string, error)
	UpdateStatus(ctx context.Context, attendanceID string, status model.AttendanceStatus) error
	Delete(ctx context.Context, attendanceID string) error
	IDExists(ctx context.Context, attendanceID string) (bool, error)
}

// Directory resolves the subjects and students ownership checks run against.
type Directory interface {
	GetSubject(ctx context.Context, subjectID string) (*model.Subject, error)
	GetStudent(ctx context.Context, admissionNumber string) (*model.Student, error)
	ListSubjectsByTeacher(ctx context.Context, teacherID string) ([]model.Subject, error)
}

// Roster lists the students registered for a subject.
type Roster interface {
	RegisteredStudents(ctx context.Context, subjectID string) ([]model.Student, error)
}

// AbsenceSink receives a note whenever a student is marked absent. The
// notify queue implements it; a nil sink disables notices.
type AbsenceSink interface {
	StudentAbsent(ctx context.Context, studentID, subjectID string, date time.Time) error
}

// Service enforces ownership and runs the marking workflow. Ownership is
// re-derived from the store on every call, never cached.
type Service struct {
	store  Store
	dir    Directory
	roster Roster
	absent AbsenceSink
}

// NewService creates a service.
func NewService(store Store, dir Directory, roster Roster, absent AbsenceSink) *Service {
	return &Service{store: store, dir: dir, roster: roster, absent: absent}
}

// ownedSubject loads a subject and verifies the teacher owns it.
func (s *Service) ownedSubject(ctx context.Context, teacherID, subjectID string) (*model.Subject, error) {
	subject, err := s.dir.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, apperr.NotFoundf("subject %s not found", subjectID)
	}
	if subject.TeacherID != teacherID {
		return nil, apperr.Forbiddenf("subject %s is not taught by %s", subjectID, teacherID)
	}
	return subject, nil
}

// Mark upserts one attendance record for a subject the teacher owns. The
// boolean reports create (true) versus in-place update.
func (s *Service) Mark(ctx context.Context, teacherID string, studentID, subjectID string, date time.Time, status model.AttendanceStatus) (model.AttendanceRecord, bool, error) {
	if studentID == "" || subjectID == "" || date.IsZero() {
		return model.AttendanceRecord{}, false, apperr.Invalidf("studentId, subjectId and date are required")
	}
	if _, err := s.ownedSubject(ctx, teacherID, subjectID); err != nil {
		return model.AttendanceRecord{}, false, err
	}
	student, err := s.dir.GetStudent(ctx, studentID)
	if err != nil {
		return model.AttendanceRecord{}, false, err
	}
	if student == nil {
		return model.AttendanceRecord{}, false, apperr.NotFoundf("student %s not found", studentID)
	}

	id, err := NewAttendanceID(ctx, s.store.IDExists)
	if err != nil {
		return model.AttendanceRecord{}, false, err
	}
	return s.upsertMark(ctx, student.FullName(), model.AttendanceRecord{
		AttendanceID: id,
		StudentID:    studentID,
		SubjectID:    subjectID,
		Date:         date,
		Status:       status,
	})
}

// upsertMark persists one record and fires the absence sink. Callers have
// already verified ownership and the student, and hold a free attendance ID.
func (s *Service) upsertMark(ctx context.Context, studentName string, rec model.AttendanceRecord) (model.AttendanceRecord, bool, error) {
	rec, created, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return model.AttendanceRecord{}, false, err
	}
	rec.StudentName = studentName

	if rec.Status == model.StatusAbsent && s.absent != nil {
		// Notice delivery is best effort; the attendance write already stuck.
		_ = s.absent.StudentAbsent(ctx, rec.StudentID, rec.SubjectID, rec.Date)
	}
	return rec, created, nil
}

// ListForTeacher returns attendance for every subject the teacher owns.
func (s *Service) ListForTeacher(ctx context.Context, teacherID string) ([]model.AttendanceRecord, []model.Subject, error) {
	subjects, err := s.dir.ListSubjectsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(subjects))
	for i, sub := range subjects {
		ids[i] = sub.SubjectID
	}
	records, err := s.store.ListForSubjects(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return records, subjects, nil
}

// ListForStudents returns attendance scoped to the given students (the
// student themself, or a parent's children).
func (s *Service) ListForStudents(ctx context.Context, studentIDs []string) ([]model.AttendanceRecord, error) {
	return s.store.ListForStudents(ctx, studentIDs)
}

// Update changes a record's status after re-verifying the owning subject.
func (s *Service) Update(ctx context.Context, teacherID, attendanceID string, status model.AttendanceStatus) (*model.AttendanceRecord, error) {
	rec, err := s.store.Get(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.NotFoundf("attendance record %s not found", attendanceID)
	}
	if _, err := s.ownedSubject(ctx, teacherID, rec.SubjectID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, attendanceID, status); err != nil {
		return nil, err
	}
	rec.Status = status
	return rec, nil
}

// Delete removes a record after re-verifying the owning subject.
func (s *Service) Delete(ctx context.Context, teacherID, attendanceID string) error {
	rec, err := s.store.Get(ctx, attendanceID)
	if err != nil {
		return err
	}
	if rec == nil {
		return apperr.NotFoundf("attendance record %s not found", attendanceID)
	}
	if _, err := s.ownedSubject(ctx, teacherID, rec.SubjectID); err != nil {
		return err
	}
	return s.store.Delete(ctx, attendanceID)
}

// BuildSession partitions a subject's roster for the given day: registered
// students minus those already holding a persisted record. All returned
// students start pending.
func (s *Service) BuildSession(ctx context.Context, teacherID, subjectID string, date time.Time) (*MarkSession, error) {
	if _, err := s.ownedSubject(ctx, teacherID, subjectID); err != nil {
		return nil, err
	}
	roster, err := s.roster.RegisteredStudents(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	markedIDs, err := s.store.MarkedStudentIDs(ctx, subjectID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	already := make(map[string]bool, len(markedIDs))
	for _, id := range markedIDs {
		already[id] = true
	}
	var editable []model.Student
	for _, st := range roster {
		if !already[st.AdmissionNumber] {
			editable = append(editable, st)
		}
	}
	return NewMarkSession(editable), nil
}

// Finalize rebuilds the session server side from the submitted marks and
// writes every marked student independently. Submission is rejected while
// any roster student remains undecided. Attendance IDs for the whole batch
// are drawn before the fan-out so the concurrent writes cannot race each
// other to the same free ID.
func (s *Service) Finalize(ctx context.Context, teacherID, subjectID string, date time.Time, marks map[string]model.AttendanceStatus) (FinalizeResult, error) {
	sess, err := s.BuildSession(ctx, teacherID, subjectID, date)
	if err != nil {
		return FinalizeResult{}, err
	}
	for id, status := range marks {
		if err := sess.Mark(id, status); err != nil {
			return FinalizeResult{}, err
		}
	}

	var assigned map[string]string
	if sess.CanFinalize() {
		marked := sess.Marked()
		ids, err := NewAttendanceIDBatch(ctx, len(marked), s.store.IDExists)
		if err != nil {
			return FinalizeResult{}, err
		}
		assigned = make(map[string]string, len(marked))
		for i, m := range marked {
			assigned[m.Student.AdmissionNumber] = ids[i]
		}
	}

	return sess.Finalize(ctx, func(ctx context.Context, m MarkedStudent) error {
		_, _, err := s.upsertMark(ctx, m.Student.FullName(), model.AttendanceRecord{
			AttendanceID: assigned[m.Student.AdmissionNumber],
			StudentID:    m.Student.AdmissionNumber,
			SubjectID:    subjectID,
			Date:         date,
			Status:       m.Status,
		})
		return err
	})
}
