package mongo

import (
	"context"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResolutionStatsRepository keeps one counter document per identifier
// fingerprint per UTC day.
type ResolutionStatsRepository struct {
	coll *mongo.Collection
}

type resolutionDailyDoc struct {
	Fingerprint string `bson:"fp"`
	Date        string `bson:"date"` // YYYY-MM-DD (UTC)
	Count       int64  `bson:"count"`
}

func NewResolutionStatsRepository(m *db.Mongo) (*ResolutionStatsRepository, error) {
	repo := &ResolutionStatsRepository{coll: m.Collection("resolutions_daily")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "fp", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_fp_date"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *ResolutionStatsRepository) IncDaily(ctx context.Context, fingerprint string, at time.Time) error {
	return r.incBy(ctx, fingerprint, dateString(at), 1)
}

func (r *ResolutionStatsRepository) incBy(ctx context.Context, fingerprint, date string, n int64) error {
	_, err := r.coll.UpdateOne(
		ctx,
		bson.M{"fp": fingerprint, "date": date},
		incUpdate(fingerprint, date, n),
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *ResolutionStatsRepository) GetDaily(ctx context.Context, fingerprint string, from, to time.Time) ([]links.DailyCount, error) {
	cur, err := r.coll.Find(
		ctx,
		bson.M{
			"fp": fingerprint,
			"date": bson.M{
				"$gte": dateString(from),
				"$lte": dateString(to),
			},
		},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []links.DailyCount
	for cur.Next(ctx) {
		var doc resolutionDailyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, links.DailyCount{
			Date:  doc.Date,
			Count: doc.Count,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func incUpdate(fingerprint, date string, n int64) bson.M {
	return bson.M{
		"$inc": bson.M{"count": n},
		"$setOnInsert": bson.M{
			"fp":   fingerprint,
			"date": date,
		},
	}
}

func dateString(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
