package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/attendance"
	"github.com/Xstatic72/alphasis/internal/config"
	"github.com/Xstatic72/alphasis/internal/directory"
	"github.com/Xstatic72/alphasis/internal/grades"
	"github.com/Xstatic72/alphasis/internal/model"
	"github.com/Xstatic72/alphasis/internal/notify"
	"github.com/Xstatic72/alphasis/internal/payment"
	"github.com/Xstatic72/alphasis/internal/payment/gateway"
	"github.com/Xstatic72/alphasis/internal/registration"
	"github.com/Xstatic72/alphasis/internal/session"
)

const testPassword = "secret123"

// fakeDirStore backs the directory service with in-memory maps.
type fakeDirStore struct {
	teachers map[string]model.Teacher
	students map[string]model.Student
	parents  map[string]model.Parent
	creds    map[string]directory.Credentials
}

func (f *fakeDirStore) GetTeacher(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := f.teachers[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (f *fakeDirStore) GetStudent(_ context.Context, id string) (*model.Student, error) {
	if s, ok := f.students[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeDirStore) GetParent(_ context.Context, id string) (*model.Parent, error) {
	if p, ok := f.parents[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeDirStore) ChildrenOf(_ context.Context, parentID string) ([]model.Student, error) {
	var out []model.Student
	for _, s := range f.students {
		if s.ParentID != nil && *s.ParentID == parentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDirStore) GetCredentials(_ context.Context, id string) (*directory.Credentials, error) {
	if c, ok := f.creds[id]; ok {
		return &c, nil
	}
	return nil, nil
}

// fakeLookup serves the shared reference lists.
type fakeLookup struct {
	classes  []model.Class
	subjects []model.Subject
	teachers []model.Teacher
	students []model.Student
}

func (f *fakeLookup) ListClasses(context.Context) ([]model.Class, error) { return f.classes, nil }

func (f *fakeLookup) ListSubjects(context.Context) ([]model.Subject, error) { return f.subjects, nil }

func (f *fakeLookup) ListTeachers(context.Context) ([]model.Teacher, error) { return f.teachers, nil }

func (f *fakeLookup) ListSubjectsByTeacher(_ context.Context, teacherID string) ([]model.Subject, error) {
	var out []model.Subject
	for _, s := range f.subjects {
		if s.TeacherID == teacherID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeLookup) ListSubjectsByClassLevel(_ context.Context, level string) ([]model.Subject, error) {
	var out []model.Subject
	for _, s := range f.subjects {
		if s.ClassLevel == level {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeLookup) ListStudentsByClassLevel(_ context.Context, level string) ([]model.Student, error) {
	var out []model.Student
	for _, s := range f.students {
		if s.ClassLevel == level {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeAttStore is the in-memory attendance.Store, keyed the same way the
// table's unique constraint is.
type fakeAttStore struct {
	mu    sync.Mutex
	byKey map[string]model.AttendanceRecord
	byID  map[string]model.AttendanceRecord
}

func newFakeAttStore() *fakeAttStore {
	return &fakeAttStore{
		byKey: make(map[string]model.AttendanceRecord),
		byID:  make(map[string]model.AttendanceRecord),
	}
}

func attKey(rec model.AttendanceRecord) string {
	return rec.StudentID + "|" + rec.SubjectID + "|" + rec.Date.Format("2006-01-02")
}

func (f *fakeAttStore) Upsert(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.byKey[attKey(rec)]; ok {
		old.Status = rec.Status
		f.byKey[attKey(rec)] = old
		f.byID[old.AttendanceID] = old
		return old, false, nil
	}
	f.byKey[attKey(rec)] = rec
	f.byID[rec.AttendanceID] = rec
	return rec, true, nil
}

func (f *fakeAttStore) Get(_ context.Context, id string) (*model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.byID[id]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (f *fakeAttStore) ListForSubjects(_ context.Context, subjectIDs []string) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AttendanceRecord
	for _, rec := range f.byKey {
		for _, id := range subjectIDs {
			if rec.SubjectID == id {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (f *fakeAttStore) ListForStudents(_ context.Context, studentIDs []string) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AttendanceRecord
	for _, rec := range f.byKey {
		for _, id := range studentIDs {
			if rec.StudentID == id {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (f *fakeAttStore) MarkedStudentIDs(_ context.Context, subjectID, date string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, rec := range f.byKey {
		if rec.SubjectID == subjectID && rec.Date.Format("2006-01-02") == date {
			out = append(out, rec.StudentID)
		}
	}
	return out, nil
}

func (f *fakeAttStore) UpdateStatus(_ context.Context, id string, status model.AttendanceStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byID[id]
	if !ok {
		return apperr.NotFoundf("attendance record %s not found", id)
	}
	rec.Status = status
	f.byID[id] = rec
	f.byKey[attKey(rec)] = rec
	return nil
}

func (f *fakeAttStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byID[id]
	if !ok {
		return apperr.NotFoundf("attendance record %s not found", id)
	}
	delete(f.byID, id)
	delete(f.byKey, attKey(rec))
	return nil
}

func (f *fakeAttStore) IDExists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok, nil
}

// fakeRegStore is the in-memory registration.Store; its RegisteredStudents
// doubles as the attendance roster.
type fakeRegStore struct {
	dir  *fakeDirStore
	byID map[string]model.Registration
}

func (f *fakeRegStore) Insert(_ context.Context, reg model.Registration) (model.Registration, error) {
	for _, r := range f.byID {
		if r.StudentID == reg.StudentID && r.SubjectID == reg.SubjectID && r.Term == reg.Term {
			return model.Registration{}, apperr.Conflictf("duplicate registration")
		}
	}
	f.byID[reg.RegistrationID] = reg
	return reg, nil
}

func (f *fakeRegStore) Get(_ context.Context, id string) (*model.Registration, error) {
	if r, ok := f.byID[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeRegStore) ListForStudent(_ context.Context, studentID string) ([]model.Registration, error) {
	var out []model.Registration
	for _, r := range f.byID {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegStore) RegisteredStudents(_ context.Context, subjectID string) ([]model.Student, error) {
	seen := make(map[string]bool)
	var out []model.Student
	for _, r := range f.byID {
		if r.SubjectID != subjectID || seen[r.StudentID] {
			continue
		}
		seen[r.StudentID] = true
		if s, ok := f.dir.students[r.StudentID]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRegStore) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return apperr.NotFoundf("registration %s not found", id)
	}
	delete(f.byID, id)
	return nil
}

// fakeGradeStore is the in-memory grades.Store.
type fakeGradeStore struct {
	byID map[string]model.Grade
}

func (f *fakeGradeStore) Upsert(_ context.Context, g model.Grade) (model.Grade, error) {
	g.Total = g.CAScore + g.ExamScore
	g.Letter = model.LetterFor(g.Total)
	for id, old := range f.byID {
		if old.StudentID == g.StudentID && old.SubjectID == g.SubjectID && old.Term == g.Term {
			g.GradeID = id
		}
	}
	f.byID[g.GradeID] = g
	return g, nil
}

func (f *fakeGradeStore) Get(_ context.Context, id string) (*model.Grade, error) {
	if g, ok := f.byID[id]; ok {
		return &g, nil
	}
	return nil, nil
}

func (f *fakeGradeStore) ListForSubjects(_ context.Context, subjectIDs []string) ([]model.Grade, error) {
	var out []model.Grade
	for _, g := range f.byID {
		for _, id := range subjectIDs {
			if g.SubjectID == id {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (f *fakeGradeStore) ListForStudents(_ context.Context, studentIDs []string) ([]model.Grade, error) {
	var out []model.Grade
	for _, g := range f.byID {
		for _, id := range studentIDs {
			if g.StudentID == id {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (f *fakeGradeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return apperr.NotFoundf("grade %s not found", id)
	}
	delete(f.byID, id)
	return nil
}

// fakePayStore is the in-memory payment.Store.
type fakePayStore struct {
	rows []model.Payment
}

func (f *fakePayStore) Insert(_ context.Context, p model.Payment) (model.Payment, error) {
	for _, existing := range f.rows {
		if existing.Reference == p.Reference {
			return model.Payment{}, apperr.Conflictf("duplicate payment reference")
		}
	}
	f.rows = append(f.rows, p)
	return p, nil
}

func (f *fakePayStore) ListForStudents(_ context.Context, studentIDs []string) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range f.rows {
		for _, id := range studentIDs {
			if p.StudentID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// fakeNoteStore is the in-memory notify.Store.
type fakeNoteStore struct {
	rows []model.Notification
}

func (f *fakeNoteStore) Insert(_ context.Context, n model.Notification) (model.Notification, error) {
	f.rows = append(f.rows, n)
	return n, nil
}

func (f *fakeNoteStore) ListForParent(_ context.Context, parentID string) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range f.rows {
		if n.ParentID == parentID {
			out = append(out, n)
		}
	}
	return out, nil
}

// testEnv bundles the router with the seams tests poke at.
type testEnv struct {
	router   *gin.Engine
	sessions *session.Manager
	att      *fakeAttStore
	regs     *fakeRegStore
	notes    *fakeNoteStore
	queue    *notify.InMemory
}

// newTestEnv seeds one teacher (T001 teaching MATH01 to SS2), three SS2
// students registered for it, a second teacher with ENG01, and a parent
// linked to the first student.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	parentID := "P001"
	dirStore := &fakeDirStore{
		teachers: map[string]model.Teacher{
			"T001": {TeacherID: "T001", FirstName: "Ngozi", LastName: "Umeh"},
			"T002": {TeacherID: "T002", FirstName: "Femi", LastName: "Balogun"},
		},
		students: map[string]model.Student{
			"AB240021": {AdmissionNumber: "AB240021", FirstName: "Ada", LastName: "Okafor", ClassLevel: "SS2", ParentID: &parentID},
			"AB240022": {AdmissionNumber: "AB240022", FirstName: "Bola", LastName: "Adeyemi", ClassLevel: "SS2"},
			"AB240023": {AdmissionNumber: "AB240023", FirstName: "Chidi", LastName: "Eze", ClassLevel: "SS2"},
		},
		parents: map[string]model.Parent{
			parentID: {ParentID: parentID, FirstName: "Bisi", LastName: "Okafor"},
		},
		creds: map[string]directory.Credentials{},
	}
	for id, tch := range dirStore.teachers {
		dirStore.creds[id] = directory.Credentials{
			Person:       model.Person{PersonID: id, FirstName: tch.FirstName, LastName: tch.LastName},
			PasswordHash: string(hash),
		}
	}
	for id, st := range dirStore.students {
		dirStore.creds[id] = directory.Credentials{
			Person:       model.Person{PersonID: id, FirstName: st.FirstName, LastName: st.LastName},
			PasswordHash: string(hash),
		}
	}
	dirStore.creds[parentID] = directory.Credentials{
		Person:       model.Person{PersonID: parentID, FirstName: "Bisi", LastName: "Okafor"},
		PasswordHash: string(hash),
	}

	subjects := []model.Subject{
		{SubjectID: "MATH01", SubjectName: "Mathematics", TeacherID: "T001", ClassLevel: "SS2"},
		{SubjectID: "ENG01", SubjectName: "English", TeacherID: "T002", ClassLevel: "SS2"},
	}
	lookup := &fakeLookup{
		classes:  []model.Class{{ClassID: "C001", ClassName: "SS2 Gold", ClassLevel: "SS2"}},
		subjects: subjects,
		teachers: []model.Teacher{dirStore.teachers["T001"], dirStore.teachers["T002"]},
		students: []model.Student{dirStore.students["AB240021"], dirStore.students["AB240022"], dirStore.students["AB240023"]},
	}

	regStore := &fakeRegStore{dir: dirStore, byID: map[string]model.Registration{
		"R001": {RegistrationID: "R001", StudentID: "AB240021", SubjectID: "MATH01", Term: "2025-T1"},
		"R002": {RegistrationID: "R002", StudentID: "AB240022", SubjectID: "MATH01", Term: "2025-T1"},
		"R003": {RegistrationID: "R003", StudentID: "AB240023", SubjectID: "MATH01", Term: "2025-T1"},
	}}

	attStore := newFakeAttStore()
	noteStore := &fakeNoteStore{}
	queue := notify.NewInMemory(16)

	cfg := config.App{
		Env:             "test",
		SessionCookie:   "session",
		SessionIssuer:   "alphasis",
		SessionKey:      "test-signing-key",
		SessionTTL:      time.Hour,
		RateLimitPerMin: 10000,
	}
	sessions := session.NewManager(cfg.SessionKey, cfg.SessionIssuer, cfg.SessionTTL, nil)
	dirSvc := directory.NewService(dirStore, dirStore)
	regSvc := registration.NewService(regStore, dirStoreAsAttDirectory{dirStore, lookup})
	attSvc := attendance.NewService(attStore, dirStoreAsAttDirectory{dirStore, lookup}, regSvc, notify.NewPublisher(queue))
	gradeSvc := grades.NewService(&fakeGradeStore{byID: map[string]model.Grade{}}, dirStoreAsAttDirectory{dirStore, lookup})
	paySvc := payment.NewService(&fakePayStore{}, gateway.New("", true))
	noteProc := notify.NewProcessor(noteStore, dirStoreAsAttDirectory{dirStore, lookup})

	api := New(Deps{
		Config:    cfg,
		Log:       zap.NewNop(),
		Sessions:  sessions,
		Directory: dirSvc,
		Lookup:    lookup,
		Att:       attSvc,
		Grades:    gradeSvc,
		Regs:      regSvc,
		Payments:  paySvc,
		Notes:     noteProc,
	})

	return &testEnv{
		router:   api.Router(),
		sessions: sessions,
		att:      attStore,
		regs:     regStore,
		notes:    noteStore,
		queue:    queue,
	}
}

// dirStoreAsAttDirectory adapts the directory fake to the subject-aware
// Directory interfaces the attendance, grades and notify services want.
type dirStoreAsAttDirectory struct {
	dir    *fakeDirStore
	lookup *fakeLookup
}

func (d dirStoreAsAttDirectory) GetSubject(_ context.Context, id string) (*model.Subject, error) {
	for _, s := range d.lookup.subjects {
		if s.SubjectID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (d dirStoreAsAttDirectory) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	return d.dir.GetStudent(ctx, id)
}

func (d dirStoreAsAttDirectory) ListSubjectsByTeacher(ctx context.Context, teacherID string) ([]model.Subject, error) {
	return d.lookup.ListSubjectsByTeacher(ctx, teacherID)
}

// loginAs logs in through the real endpoint and returns the session cookie.
func (e *testEnv) loginAs(t *testing.T, userID string, role model.Role) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"userId":   userID,
		"password": testPassword,
		"role":     string(role),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

// do sends a JSON request with an optional session cookie.
func (e *testEnv) do(method, path string, cookie *http.Cookie, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
