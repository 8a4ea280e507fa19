package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects emitted by the evaluation engine.
const (
	SubjectSubmissionEvaluated = "examhub.evaluation.submission"
	SubjectBatchCompleted      = "examhub.evaluation.batch"
)

// EventPublisher broadcasts evaluation lifecycle events for downstream
// consumers (notification fan-out, dashboards). Publishing is best effort;
// a failed publish never fails the evaluation that triggered it.
type EventPublisher interface {
	Publish(subject string, event any)
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewEventPublisher wraps a NATS connection. A nil connection yields a
// publisher that drops every event, which keeps callers branch-free.
func NewEventPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(subject string, event any) {
	if p.conn == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to marshal event")
		return
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// SubmissionEvaluatedEvent is emitted after each successful single-student evaluation.
type SubmissionEvaluatedEvent struct {
	ExamID      uint      `json:"exam_id"`
	StudentID   uint      `json:"student_id"`
	TotalScore  float64   `json:"total_score"`
	Percentage  float64   `json:"percentage"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// BatchCompletedEvent is emitted after a batch run finishes.
type BatchCompletedEvent struct {
	ExamID     uint      `json:"exam_id"`
	Evaluated  int       `json:"evaluated"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finished_at"`
}
