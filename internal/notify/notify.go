// Package notify turns ABSENT attendance marks into notices for the
// student's parent. The API publishes absence events onto a queue; the
// worker consumes them and writes notification rows.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Xstatic72/alphasis/internal/model"
)

// MessageTypeAbsence tags absence events on the queue.
const MessageTypeAbsence = "absence"

// AbsenceEvent is the queue payload for one ABSENT mark.
type AbsenceEvent struct {
	StudentID string    `json:"studentId"`
	SubjectID string    `json:"subjectId"`
	Date      time.Time `json:"date"`
}

// Publisher pushes absence events onto the queue. It satisfies the
// attendance service's AbsenceSink.
type Publisher struct {
	queue Queue
}

// NewPublisher creates a publisher.
func NewPublisher(queue Queue) *Publisher {
	return &Publisher{queue: queue}
}

// StudentAbsent publishes one absence event.
func (p *Publisher) StudentAbsent(ctx context.Context, studentID, subjectID string, date time.Time) error {
	body, err := json.Marshal(AbsenceEvent{StudentID: studentID, SubjectID: subjectID, Date: date})
	if err != nil {
		return err
	}
	return p.queue.Publish(ctx, Message{Type: MessageTypeAbsence, Body: body})
}

// Directory resolves the student and subject behind an event.
type Directory interface {
	GetStudent(ctx context.Context, admissionNumber string) (*model.Student, error)
	GetSubject(ctx context.Context, subjectID string) (*model.Subject, error)
}

// Store persists notification rows; *Repository satisfies it.
type Store interface {
	Insert(ctx context.Context, n model.Notification) (model.Notification, error)
	ListForParent(ctx context.Context, parentID string) ([]model.Notification, error)
}

// Processor is the worker side: one event in, one notification out.
type Processor struct {
	store Store
	dir   Directory
}

// NewProcessor creates a processor.
func NewProcessor(store Store, dir Directory) *Processor {
	return &Processor{store: store, dir: dir}
}

// Process writes the notice for one absence event. Students without a
// linked parent produce no notice and no error.
func (p *Processor) Process(ctx context.Context, evt AbsenceEvent) (*model.Notification, error) {
	student, err := p.dir.GetStudent(ctx, evt.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fmt.Errorf("student %s not found", evt.StudentID)
	}
	if student.ParentID == nil || *student.ParentID == "" {
		return nil, nil
	}
	subject, err := p.dir.GetSubject(ctx, evt.SubjectID)
	if err != nil {
		return nil, err
	}
	subjectName := evt.SubjectID
	if subject != nil {
		subjectName = subject.SubjectName
	}

	n := model.Notification{
		NotificationID: uuid.NewString(),
		ParentID:       *student.ParentID,
		StudentID:      evt.StudentID,
		SubjectID:      evt.SubjectID,
		Date:           evt.Date,
		Message: fmt.Sprintf("%s was marked absent in %s on %s",
			student.FullName(), subjectName, evt.Date.Format("2006-01-02")),
	}
	saved, err := p.store.Insert(ctx, n)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListForParent returns a parent's notices.
func (p *Processor) ListForParent(ctx context.Context, parentID string) ([]model.Notification, error) {
	return p.store.ListForParent(ctx, parentID)
}
