package links

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/processing/identifier"
	"github.com/IgorGrieder/tempqr/internal/processing/policy"
	"github.com/IgorGrieder/tempqr/internal/processing/qr"
)

const (
	DefaultMaxUploadBytes = 500 << 20

	defaultContentType = "application/octet-stream"
	textContentType    = "text/plain; charset=utf-8"
	maxStatsRangeDays  = 366
)

type Dependencies struct {
	Codec     *identifier.Codec
	Policies  PolicyResolver
	Counter   DailyCounter
	Objects   ObjectStore
	Publisher ResolutionPublisher
	Stats     StatsRepository
	Keys      KeyGenerator
}

type ServiceOptions struct {
	MaxUploadBytes int64
	// BaseURL is the public origin short URLs and QR codes are built on.
	BaseURL string
	Now     func() time.Time
}

type Service struct {
	codec     *identifier.Codec
	policies  PolicyResolver
	counter   DailyCounter
	objects   ObjectStore
	publisher ResolutionPublisher
	stats     StatsRepository
	keys      KeyGenerator

	maxUploadBytes int64
	linkPrefix     string
	now            func() time.Time
}

func NewService(deps Dependencies, opts ServiceOptions) *Service {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if deps.Keys == nil {
		deps.Keys = NewCryptoKeyGenerator()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		codec:          deps.Codec,
		policies:       deps.Policies,
		counter:        deps.Counter,
		objects:        deps.Objects,
		publisher:      deps.Publisher,
		stats:          deps.Stats,
		keys:           deps.Keys,
		maxUploadBytes: opts.MaxUploadBytes,
		linkPrefix:     strings.TrimRight(opts.BaseURL, "/") + "/go/",
		now:            opts.Now,
	}
}

func (s *Service) CreateLink(ctx context.Context, in CreateLinkInput) (*Link, error) {
	dest, err := ParseDestination(in.Destination)
	if err != nil {
		return nil, err
	}
	if len(dest.Raw) > s.codec.MaxDestinationBytes() {
		return nil, ErrInvalidDestination
	}
	// the short URL is what the QR endpoint encodes
	if len(s.linkPrefix)+s.codec.EncodedLen(dest.Raw) > qr.MaxContentBytes {
		return nil, ErrInvalidDestination
	}
	if _, err := identifier.ClampMinutes(in.Minutes, 0); err != nil {
		return nil, err
	}

	allowance := s.policies.Resolve(ctx, in.Proof)
	if dest.Kind != KindURL && !allowance.IndirectPayloads {
		return nil, ErrPaymentRequired
	}

	if err := s.consumeDaily(ctx, allowance, in.ClientIP); err != nil {
		return nil, err
	}

	issued, err := s.codec.Encode(dest.Raw, in.Minutes, allowance.Limits)
	if err != nil {
		return nil, err
	}

	return &Link{
		ID:          issued.ID,
		Destination: dest,
		ExpiresAt:   issued.ExpiresAt,
		Minutes:     issued.Minutes,
		Limits:      allowance.Limits,
	}, nil
}

func (s *Service) consumeDaily(ctx context.Context, allowance policy.Allowance, clientIP string) error {
	if allowance.Unlimited() || s.counter == nil {
		return nil
	}

	count, err := s.counter.Incr(ctx, dailyKey(allowance, clientIP))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count > allowance.DailyLimit {
		return ErrDailyLimitExceeded
	}
	return nil
}

func dailyKey(allowance policy.Allowance, clientIP string) string {
	switch allowance.Source {
	case policy.SourceToken:
		return "token:" + allowance.Subject
	case policy.SourceAccount:
		return "user:" + allowance.Subject
	}
	if clientIP == "" {
		clientIP = "unknown"
	}
	return "ip:" + clientIP
}

// Resolve returns where a live identifier points. Forged or malformed
// identifiers are ErrNotFound; expired ones are ErrExpired and never carry
// the destination.
func (s *Service) Resolve(ctx context.Context, id string) (*Resolution, error) {
	decoded, err := s.decode(id)
	if err != nil {
		return nil, err
	}
	if s.codec.Status(decoded) == identifier.StatusExpired {
		return nil, ErrExpired
	}

	dest, err := ParseDestination(decoded.Destination)
	if err != nil {
		return nil, ErrNotFound
	}

	res := &Resolution{
		Kind:        dest.Kind,
		ExpiresAt:   decoded.ExpiresAt,
		Fingerprint: identifier.Fingerprint(id),
	}

	if dest.Kind == KindURL {
		res.Target = dest.URL
		return res, nil
	}

	if s.objects == nil {
		return nil, ErrStoreUnavailable
	}
	req := ObjectRequest{
		Key:         dest.Key,
		FileName:    dest.FileName,
		ContentType: dest.ContentType,
	}
	if dest.Kind == KindText {
		req.ContentType = textContentType
		req.Inline = true
	}
	target, err := s.objects.PresignGet(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	res.Target = target
	return res, nil
}

// Inspect reports the state of an identifier without revealing where it
// points. Expired identifiers are reported, not rejected.
func (s *Service) Inspect(ctx context.Context, id string) (*LinkInfo, error) {
	decoded, err := s.decode(id)
	if err != nil {
		return nil, err
	}

	kind := KindURL
	if dest, err := ParseDestination(decoded.Destination); err == nil {
		kind = dest.Kind
	}

	now := s.now()
	info := &LinkInfo{
		Kind:        kind,
		ExpiresAt:   decoded.ExpiresAt,
		Expired:     decoded.StatusAt(now) == identifier.StatusExpired,
		Fingerprint: identifier.Fingerprint(id),
	}
	if !info.Expired {
		info.RemainingSeconds = int64(math.Ceil(decoded.ExpiresAt.Sub(now).Seconds()))
	}
	return info, nil
}

func (s *Service) ShortURL(id string) string {
	return s.linkPrefix + id
}

// QRContent returns what the QR code of a live identifier encodes. SVG
// export needs a paid tier.
func (s *Service) QRContent(ctx context.Context, id string, format qr.Format, proof policy.Proof) (string, error) {
	info, err := s.Inspect(ctx, id)
	if err != nil {
		return "", err
	}
	if info.Expired {
		return "", ErrExpired
	}
	if format == qr.FormatSVG && !s.policies.Resolve(ctx, proof).SVGExport {
		return "", ErrFeatureRequiresProof
	}
	return s.ShortURL(strings.TrimSpace(id)), nil
}

func (s *Service) RecordResolution(ctx context.Context, fingerprint string) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishResolved(ctx, fingerprint, s.now().UTC())
}

func (s *Service) GetStats(ctx context.Context, id string, from, to time.Time) ([]DailyCount, error) {
	if _, err := s.decode(id); err != nil {
		return nil, err
	}

	from = from.UTC()
	to = to.UTC()
	if to.Before(from) || dateOnly(to).Sub(dateOnly(from)) > maxStatsRangeDays*24*time.Hour {
		return nil, ErrInvalidRange
	}
	if s.stats == nil {
		return nil, ErrStoreUnavailable
	}

	counts, err := s.stats.GetDaily(ctx, identifier.Fingerprint(id), from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	byDate := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDate[c.Date] = c.Count
	}

	out := make([]DailyCount, 0, int(to.Sub(from).Hours()/24)+1)
	for day := dateOnly(from); !day.After(dateOnly(to)); day = day.AddDate(0, 0, 1) {
		ds := day.Format(time.DateOnly)
		out = append(out, DailyCount{
			Date:  ds,
			Count: byDate[ds],
		})
	}

	return out, nil
}

// PresignUpload reserves an object key and returns a URL the client can PUT
// the content to, plus the destination reference to encode afterwards.
func (s *Service) PresignUpload(ctx context.Context, in UploadInput) (*Upload, error) {
	allowance := s.policies.Resolve(ctx, in.Proof)
	if !allowance.IndirectPayloads {
		return nil, ErrPaymentRequired
	}
	if in.Size <= 0 {
		return nil, ErrInvalidUpload
	}
	if in.Size > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if s.objects == nil {
		return nil, ErrStoreUnavailable
	}

	folder := normalizeFolder(in.Folder)
	key, err := s.keys.Generate(folder, in.FileName, s.now())
	if err != nil {
		return nil, err
	}

	ct := strings.TrimSpace(in.ContentType)
	if ct == "" {
		ct = defaultContentType
	}
	ct = truncate(ct, maxContentTypeLen)

	uploadURL, ttl, err := s.objects.PresignPut(ctx, key, ct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ref := TextReference(key)
	if folder == FolderFiles {
		ref = FileReference(key, truncate(in.FileName, maxFileNameLen), ct)
	}

	return &Upload{
		Key:       key,
		UploadURL: uploadURL,
		ExpiresIn: ttl,
		Reference: ref,
	}, nil
}

func (s *Service) decode(id string) (*identifier.Decoded, error) {
	decoded, err := s.codec.Decode(strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, identifier.ErrMalformed) || errors.Is(err, identifier.ErrInvalidSignature) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decoded, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
