package mongo

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IgorGrieder/tempqr/internal/infrastructure/logger"
	"github.com/IgorGrieder/tempqr/internal/processing/links"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type BufferedStatsOptions struct {
	QueueSize      int
	FlushInterval  time.Duration
	MaxBatchEvents int
	FlushTimeout   time.Duration
}

// BufferedStatsRepository aggregates resolution hits in memory and flushes
// them as one bulk upsert. It is the in-process alternative to publishing
// resolution events to Kafka; hits are dropped when the queue is full.
type BufferedStatsRepository struct {
	base         *ResolutionStatsRepository
	queue        chan resolutionHit
	flushEvery   time.Duration
	maxBatch     int
	flushTimeout time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	dropped atomic.Int64
}

type resolutionHit struct {
	fingerprint string
	day         int32 // YYYYMMDD (UTC)
}

func NewBufferedStatsRepository(base *ResolutionStatsRepository, opts BufferedStatsOptions) *BufferedStatsRepository {
	const (
		defaultQueueSize      = 100_000
		defaultFlushInterval  = 250 * time.Millisecond
		defaultMaxBatchEvents = 50_000
		defaultFlushTimeout   = 2 * time.Second
	)

	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if opts.MaxBatchEvents <= 0 {
		opts.MaxBatchEvents = defaultMaxBatchEvents
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultFlushTimeout
	}

	r := &BufferedStatsRepository{
		base:         base,
		queue:        make(chan resolutionHit, opts.QueueSize),
		flushEvery:   opts.FlushInterval,
		maxBatch:     opts.MaxBatchEvents,
		flushTimeout: opts.FlushTimeout,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	go r.loop()
	return r
}

func (r *BufferedStatsRepository) IncDaily(_ context.Context, fingerprint string, at time.Time) error {
	if fingerprint == "" {
		return nil
	}

	select {
	case r.queue <- resolutionHit{fingerprint: fingerprint, day: dayKey(at)}:
	default:
		r.dropped.Add(1)
	}
	return nil
}

// PublishResolved lets the buffer stand in for the Kafka publisher.
func (r *BufferedStatsRepository) PublishResolved(ctx context.Context, fingerprint string, at time.Time) error {
	return r.IncDaily(ctx, fingerprint, at)
}

func (r *BufferedStatsRepository) GetDaily(ctx context.Context, fingerprint string, from, to time.Time) ([]links.DailyCount, error) {
	return r.base.GetDaily(ctx, fingerprint, from, to)
}

func (r *BufferedStatsRepository) Dropped() int64 {
	return r.dropped.Load()
}

func (r *BufferedStatsRepository) Shutdown(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stopCh) })

	select {
	case <-r.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *BufferedStatsRepository) loop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.flushEvery)
	defer ticker.Stop()

	pending := make(map[resolutionHit]int64)
	var events int

	add := func(hit resolutionHit) {
		pending[hit]++
		events++
		if events >= r.maxBatch {
			r.flushPending(pending)
			pending = make(map[resolutionHit]int64)
			events = 0
		}
	}

	flush := func() {
		if events == 0 {
			return
		}
		r.flushPending(pending)
		pending = make(map[resolutionHit]int64)
		events = 0
	}

	for {
		select {
		case hit := <-r.queue:
			add(hit)
		case <-ticker.C:
			flush()
		case <-r.stopCh:
			for len(r.queue) > 0 {
				add(<-r.queue)
			}
			flush()
			return
		}
	}
}

func (r *BufferedStatsRepository) flushPending(pending map[resolutionHit]int64) {
	ctx, cancel := context.WithTimeout(context.Background(), r.flushTimeout)
	defer cancel()

	if err := r.flush(ctx, pending); err != nil {
		logger.Error("failed to flush resolution stats",
			zap.Int("documents", len(pending)),
			zap.Error(err),
		)
	}
}

func (r *BufferedStatsRepository) flush(ctx context.Context, pending map[resolutionHit]int64) error {
	models := bulkModels(pending)
	if len(models) == 0 {
		return nil
	}

	_, err := r.base.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func bulkModels(pending map[resolutionHit]int64) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(pending))
	for hit, inc := range pending {
		date := dateStringFromDayKey(hit.day)
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"fp": hit.fingerprint, "date": date}).
			SetUpdate(incUpdate(hit.fingerprint, date, inc)).
			SetUpsert(true),
		)
	}
	return models
}

func dayKey(t time.Time) int32 {
	y, m, d := t.UTC().Date()
	return int32(y*10000 + int(m)*100 + d)
}

func dateStringFromDayKey(day int32) string {
	y := int(day / 10000)
	m := int((day / 100) % 100)
	d := int(day % 100)

	var b [10]byte
	b[0] = byte('0' + (y/1000)%10)
	b[1] = byte('0' + (y/100)%10)
	b[2] = byte('0' + (y/10)%10)
	b[3] = byte('0' + y%10)
	b[4] = '-'
	b[5] = byte('0' + (m/10)%10)
	b[6] = byte('0' + m%10)
	b[7] = '-'
	b[8] = byte('0' + (d/10)%10)
	b[9] = byte('0' + d%10)
	return string(b[:])
}
