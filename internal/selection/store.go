package selection

import (
	"context"
	"net/url"

	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/ranges"
)

// Location is the shareable link holding the selection as query parameters.
type Location interface {
	Query(ctx context.Context) (url.Values, error)
	SetQuery(ctx context.Context, q url.Values) error
}

// KV is the local persistent store.
type KV interface {
	GetValue(ctx context.Context, key string) ([]byte, bool, error)
	SetValue(ctx context.Context, key string, value []byte) error
}

// Source identifies where a loaded selection came from.
type Source int

const (
	SourceDefault Source = iota
	SourceLink
	SourceStorage
)

func (s Source) String() string {
	switch s {
	case SourceLink:
		return "link"
	case SourceStorage:
		return "storage"
	default:
		return "default"
	}
}

// Store loads and saves the active selection across the link and local
// storage. Either sink may be nil.
type Store struct {
	location Location
	kv       KV
	resolver *ranges.Resolver
}

// NewStore creates a store over the given sinks.
func NewStore(location Location, kv KV, resolver *ranges.Resolver) *Store {
	if resolver == nil {
		resolver = ranges.NewResolver(nil)
	}
	return &Store{location: location, kv: kv, resolver: resolver}
}

// Resolver returns the resolver used to re-derive presets.
func (s *Store) Resolver() *ranges.Resolver {
	return s.resolver
}

// Load returns the selection to start with in tz. A valid link selection
// wins and is copied into storage; otherwise a valid stored selection is
// used and mirrored into the link; otherwise the default preset is written
// to both.
func (s *Store) Load(ctx context.Context, tz string) (models.CalendarRange, Source) {
	if rng, ok := s.fromLocation(ctx, tz); ok {
		s.writeStorage(ctx, Serialize(rng, tz))
		return rng, SourceLink
	}
	if rng, ok := s.fromStorage(ctx, tz); ok {
		s.writeLocation(ctx, Serialize(rng, tz))
		return rng, SourceStorage
	}
	rng := s.resolver.Default(tz)
	s.Save(ctx, rng, tz)
	return rng, SourceDefault
}

// Save writes rng to both sinks. Failures are logged, never returned.
func (s *Store) Save(ctx context.Context, rng models.CalendarRange, tz string) {
	p := Serialize(rng, tz)
	s.writeLocation(ctx, p)
	s.writeStorage(ctx, p)
}

func (s *Store) fromLocation(ctx context.Context, tz string) (models.CalendarRange, bool) {
	if s.location == nil {
		return models.CalendarRange{}, false
	}
	q, err := s.location.Query(ctx)
	if err != nil {
		logger.Warn("Failed to read selection link", "error", err)
		return models.CalendarRange{}, false
	}
	return Deserialize(FromQuery(q), tz, s.resolver)
}

func (s *Store) fromStorage(ctx context.Context, tz string) (models.CalendarRange, bool) {
	if s.kv == nil {
		return models.CalendarRange{}, false
	}
	data, found, err := s.kv.GetValue(ctx, StorageKey)
	if err != nil {
		logger.Warn("Failed to read stored selection", "error", err)
		return models.CalendarRange{}, false
	}
	if !found {
		return models.CalendarRange{}, false
	}
	p, ok := DecodeBlob(data)
	if !ok {
		logger.Debug("Ignoring malformed stored selection")
		return models.CalendarRange{}, false
	}
	return Deserialize(p, tz, s.resolver)
}

func (s *Store) writeLocation(ctx context.Context, p models.PersistedSelection) {
	if s.location == nil {
		return
	}
	if err := s.location.SetQuery(ctx, ToQuery(p)); err != nil {
		logger.Warn("Failed to write selection link", "error", err)
	}
}

func (s *Store) writeStorage(ctx context.Context, p models.PersistedSelection) {
	if s.kv == nil {
		return
	}
	data, err := EncodeBlob(p)
	if err != nil {
		logger.Warn("Failed to encode selection", "error", err)
		return
	}
	if err := s.kv.SetValue(ctx, StorageKey, data); err != nil {
		logger.Warn("Failed to store selection", "error", err)
	}
}
