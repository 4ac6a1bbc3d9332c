package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResolutionEventProcessor records an event id before counting it, so a
// redelivered event is skipped. A crash between the two writes loses that
// single hit.
type ResolutionEventProcessor struct {
	processed *mongo.Collection
	stats     *ResolutionStatsRepository
	now       func() time.Time
}

func NewResolutionEventProcessor(m *db.Mongo, stats *ResolutionStatsRepository) (*ResolutionEventProcessor, error) {
	p := &ResolutionEventProcessor{
		processed: m.Collection("processed_events"),
		stats:     stats,
		now:       time.Now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := p.processed.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "eventId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_event_id"),
		},
		{
			Keys:    bson.D{{Key: "processedAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7 * 24 * 3600).SetName("ttl_processed_at"),
		},
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ResolutionEventProcessor) Process(
	ctx context.Context,
	eventID string,
	fingerprint string,
	occurredAt time.Time,
) (alreadyProcessed bool, err error) {
	eventID = strings.TrimSpace(eventID)
	fingerprint = strings.TrimSpace(fingerprint)
	if eventID == "" {
		return false, errors.New("eventID must not be empty")
	}
	if fingerprint == "" {
		return false, errors.New("fingerprint must not be empty")
	}

	_, err = p.processed.InsertOne(ctx, bson.M{
		"eventId":     eventID,
		"processedAt": p.now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return false, p.stats.IncDaily(ctx, fingerprint, occurredAt)
}
