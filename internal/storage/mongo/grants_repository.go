package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
	"github.com/IgorGrieder/tempqr/internal/processing/policy"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GrantsRepository stores tier tokens. It backs both the policy resolver
// and the account service.
type GrantsRepository struct {
	coll *mongo.Collection
}

type grantDoc struct {
	Token      string     `bson:"token"`
	Plan       string     `bson:"plan"`
	Tier       int        `bson:"tier"`
	MaxMinutes int64      `bson:"maxMinutes,omitempty"`
	DailyLimit int64      `bson:"dailyLimit,omitempty"`
	UserID     string     `bson:"userId,omitempty"`
	SessionID  string     `bson:"sessionId,omitempty"`
	ExpiresAt  *time.Time `bson:"expiresAt,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt"`
}

func NewGrantsRepository(m *db.Mongo) (*GrantsRepository, error) {
	repo := &GrantsRepository{coll: m.Collection("grants")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_token"),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_session"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "tier", Value: -1}},
			Options: options.Index().SetName("user_tier"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *GrantsRepository) FindActiveByToken(ctx context.Context, token string, at time.Time) (*policy.Grant, error) {
	filter := activeFilter(at)
	filter["token"] = token
	return r.findOne(ctx, filter)
}

func (r *GrantsRepository) FindBestByUser(ctx context.Context, userID string, at time.Time) (*policy.Grant, error) {
	filter := activeFilter(at)
	filter["userId"] = userID
	return r.findOne(ctx, filter, options.FindOne().SetSort(bson.D{
		{Key: "tier", Value: -1},
		{Key: "maxMinutes", Value: -1},
	}))
}

func (r *GrantsRepository) FindByToken(ctx context.Context, token string) (*policy.Grant, error) {
	return r.findOne(ctx, bson.M{"token": token})
}

func (r *GrantsRepository) BindUser(ctx context.Context, token, userID string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{
			"token": token,
			"$or": bson.A{
				bson.M{"userId": bson.M{"$exists": false}},
				bson.M{"userId": ""},
			},
		},
		bson.M{"$set": bson.M{"userId": userID}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Save inserts g. A grant with a session id that was already issued
// returns the stored grant instead.
func (r *GrantsRepository) Save(ctx context.Context, g *policy.Grant) (*policy.Grant, error) {
	doc := toGrantDoc(g)

	if g.SessionID == "" {
		if _, err := r.coll.InsertOne(ctx, doc); err != nil {
			return nil, err
		}
		return g, nil
	}

	var stored grantDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"sessionId": g.SessionID},
		bson.M{"$setOnInsert": doc},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, err
	}
	return stored.toGrant(), nil
}

func (r *GrantsRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*policy.Grant, error) {
	var doc grantDoc
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, policy.ErrGrantNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toGrant(), nil
}

func activeFilter(at time.Time) bson.M {
	return bson.M{
		"plan": string(policy.PlanPro),
		"$or": bson.A{
			bson.M{"expiresAt": nil},
			bson.M{"expiresAt": bson.M{"$gt": at.UTC()}},
		},
	}
}

func toGrantDoc(g *policy.Grant) grantDoc {
	return grantDoc{
		Token:      g.Token,
		Plan:       string(g.Plan),
		Tier:       g.Tier,
		MaxMinutes: g.MaxMinutes,
		DailyLimit: g.DailyLimit,
		UserID:     g.UserID,
		SessionID:  g.SessionID,
		ExpiresAt:  g.ExpiresAt,
		CreatedAt:  g.CreatedAt,
	}
}

func (d grantDoc) toGrant() *policy.Grant {
	return &policy.Grant{
		Token:      d.Token,
		Plan:       policy.Plan(d.Plan),
		Tier:       d.Tier,
		MaxMinutes: d.MaxMinutes,
		DailyLimit: d.DailyLimit,
		UserID:     d.UserID,
		SessionID:  d.SessionID,
		ExpiresAt:  d.ExpiresAt,
		CreatedAt:  d.CreatedAt,
	}
}
