package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/carelink/bpbot/internal/domain"
	"github.com/carelink/bpbot/internal/store"
)

// PublishingReadings stores a reading and then publishes it. Publishing is
// best effort: a failed publish is logged and the insert still succeeds.
type PublishingReadings struct {
	inner     store.ReadingRepository
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewPublishingReadings decorates inner with publisher.
func NewPublishingReadings(inner store.ReadingRepository, publisher Publisher, logger *slog.Logger) *PublishingReadings {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishingReadings{
		inner:     inner,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// InsertReading implements store.ReadingRepository.
func (p *PublishingReadings) InsertReading(ctx context.Context, r domain.Reading) error {
	if r.RecordedAt.IsZero() {
		r.RecordedAt = p.now()
	}
	if err := p.inner.InsertReading(ctx, r); err != nil {
		return err
	}
	if err := p.publisher.PublishReading(ctx, r); err != nil {
		p.logger.Warn("Failed to publish reading event", "patient_id", r.PatientID, "error", err)
	}
	return nil
}

var _ store.ReadingRepository = (*PublishingReadings)(nil)
