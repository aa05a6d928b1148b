package attendance

import (
	"context"
	"sort"
	"sync"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

// MarkSession is the finite-state marking workflow for one (subject, date)
// pair. Each roster student is either pending or marked, never both; the
// union of the two sets is always the initial roster. Students who already
// have a persisted record for the date are excluded before the session is
// built.
type MarkSession struct {
	roster  map[string]model.Student
	pending map[string]struct{}
	marked  map[string]model.AttendanceStatus
}

// MarkedStudent pairs a roster student with their provisional status.
type MarkedStudent struct {
	Student model.Student
	Status  model.AttendanceStatus
}

// NewMarkSession starts a session with every roster student pending.
func NewMarkSession(roster []model.Student) *MarkSession {
	s := &MarkSession{
		roster:  make(map[string]model.Student, len(roster)),
		pending: make(map[string]struct{}, len(roster)),
		marked:  make(map[string]model.AttendanceStatus),
	}
	for _, st := range roster {
		s.roster[st.AdmissionNumber] = st
		s.pending[st.AdmissionNumber] = struct{}{}
	}
	return s
}

// Mark assigns a provisional status. Re-marking an already-marked student
// simply replaces the status.
func (s *MarkSession) Mark(studentID string, status model.AttendanceStatus) error {
	if _, ok := s.roster[studentID]; !ok {
		return apperr.Invalidf("student %s is not on the roster", studentID)
	}
	delete(s.pending, studentID)
	s.marked[studentID] = status
	return nil
}

// Unmark returns a marked student to pending, discarding the status.
func (s *MarkSession) Unmark(studentID string) error {
	if _, ok := s.marked[studentID]; !ok {
		return apperr.Invalidf("student %s is not marked", studentID)
	}
	delete(s.marked, studentID)
	s.pending[studentID] = struct{}{}
	return nil
}

// MarkAllPresent marks every pending student present.
func (s *MarkSession) MarkAllPresent() { s.markAll(model.StatusPresent) }

// MarkAllAbsent marks every pending student absent.
func (s *MarkSession) MarkAllAbsent() { s.markAll(model.StatusAbsent) }

func (s *MarkSession) markAll(status model.AttendanceStatus) {
	for id := range s.pending {
		delete(s.pending, id)
		s.marked[id] = status
	}
}

// Reset discards all marks and restores the full roster to pending.
func (s *MarkSession) Reset() {
	s.marked = make(map[string]model.AttendanceStatus)
	for id := range s.roster {
		s.pending[id] = struct{}{}
	}
}

// Pending lists pending students in admission-number order.
func (s *MarkSession) Pending() []model.Student {
	out := make([]model.Student, 0, len(s.pending))
	for id := range s.pending {
		out = append(out, s.roster[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdmissionNumber < out[j].AdmissionNumber })
	return out
}

// Marked lists marked students in admission-number order.
func (s *MarkSession) Marked() []MarkedStudent {
	out := make([]MarkedStudent, 0, len(s.marked))
	for id, status := range s.marked {
		out = append(out, MarkedStudent{Student: s.roster[id], Status: status})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Student.AdmissionNumber < out[j].Student.AdmissionNumber
	})
	return out
}

// CanFinalize reports whether the session may be submitted: every roster
// student decided, at least one mark to write.
func (s *MarkSession) CanFinalize() bool {
	return len(s.pending) == 0 && len(s.marked) > 0
}

// FailedMark names one student whose write did not go through.
type FailedMark struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Reason      string `json:"reason"`
}

// FinalizeResult aggregates the independent per-student outcomes.
type FinalizeResult struct {
	Saved  []string     `json:"saved"`
	Failed []FailedMark `json:"failed"`
}

// Finalize submits every marked student through write, one goroutine each,
// and does not abort on individual failure. Successes are durable even when
// siblings fail; failed students are reported, not re-queued. The session's
// marks are cleared either way.
func (s *MarkSession) Finalize(ctx context.Context, write func(ctx context.Context, m MarkedStudent) error) (FinalizeResult, error) {
	if !s.CanFinalize() {
		return FinalizeResult{}, apperr.Invalidf("cannot finalize: %d students still pending", len(s.pending))
	}

	marked := s.Marked()
	type outcome struct {
		m   MarkedStudent
		err error
	}
	results := make(chan outcome, len(marked))
	var wg sync.WaitGroup
	for _, m := range marked {
		wg.Add(1)
		go func(m MarkedStudent) {
			defer wg.Done()
			results <- outcome{m: m, err: write(ctx, m)}
		}(m)
	}
	wg.Wait()
	close(results)

	byID := make(map[string]outcome, len(marked))
	for o := range results {
		byID[o.m.Student.AdmissionNumber] = o
	}

	var res FinalizeResult
	for _, m := range marked {
		o := byID[m.Student.AdmissionNumber]
		if o.err != nil {
			res.Failed = append(res.Failed, FailedMark{
				StudentID:   m.Student.AdmissionNumber,
				StudentName: m.Student.FullName(),
				Reason:      o.err.Error(),
			})
			continue
		}
		res.Saved = append(res.Saved, m.Student.AdmissionNumber)
	}

	s.marked = make(map[string]model.AttendanceStatus)
	return res, nil
}
