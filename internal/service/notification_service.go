package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusys-id/substitution-api/internal/models"
	"github.com/edusys-id/substitution-api/pkg/jobs"
)

// SubstitutionEvent is the payload dispatched for substitution workflow
// notifications.
type SubstitutionEvent struct {
	Event     string
	RequestID string
	SlotID    string
	TeacherID string
	Priority  string
}

// NotificationService fans substitution events out to the background queue.
// Dispatch is fire-and-forget: a full queue drops the event with a log line
// rather than blocking the request path.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService and its queue.
func NewNotificationService(cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifySubstitution enqueues a substitution workflow event.
func (s *NotificationService) NotifySubstitution(event string, request *models.SubstitutionRequest) {
	if request == nil {
		return
	}
	teacherID := ""
	if request.SuggestedTeacherID != nil {
		teacherID = *request.SuggestedTeacherID
	}
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: event,
		Payload: SubstitutionEvent{
			Event:     event,
			RequestID: request.ID,
			SlotID:    request.SlotID,
			TeacherID: teacherID,
			Priority:  request.Priority,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("event", event),
			zap.String("request_id", request.ID),
			zap.Error(err))
	}
}

// deliver is the queue handler. Delivery currently logs the event; mail and
// push channels plug in here.
func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(SubstitutionEvent)
	if !ok {
		s.logger.Warn("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	s.logger.Info("notification delivered",
		zap.String("event", event.Event),
		zap.String("request_id", event.RequestID),
		zap.String("teacher_id", event.TeacherID),
		zap.String("priority", event.Priority))
	return nil
}
