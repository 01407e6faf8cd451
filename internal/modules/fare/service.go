// README: Quote service; snapshots the registry, consults the cache, runs the engine.
package fare

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"go.uber.org/zap"

	"skyfare/internal/modules/rates"
)

// SnapshotProvider hands out immutable registry snapshots.
type SnapshotProvider interface {
	Snapshot() *rates.Registry
}

type Service struct {
	registry SnapshotProvider
	cache    *Store
	opts     Options
	log      *zap.Logger
}

// NewService wires the engine to a registry. Pass a nil cache to disable
// quote caching and nil log to discard logs.
func NewService(registry SnapshotProvider, cache *Store, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{registry: registry, cache: cache, opts: opts, log: log}
}

// Quote prices one trip request against the current registry version.
// Identical requests against the same version are served from the cache.
func (s *Service) Quote(ctx context.Context, req TripRequest) (PriceBreakdown, error) {
	reg := s.registry.Snapshot()

	key := requestHash(req)
	if s.cache != nil {
		if bd, ok, err := s.cache.GetQuote(ctx, reg.Version, key); err != nil {
			s.log.Warn("quote cache read failed", zap.Error(err))
		} else if ok {
			return bd, nil
		}
	}

	bd, err := ComputeFare(req, reg, s.opts)
	if err != nil {
		return PriceBreakdown{}, err
	}

	s.log.Info("quote resolved",
		zap.Int64("registry_version", bd.RegistryVersion),
		zap.String("tier", string(bd.Tier)),
		zap.Int64("total", bd.Total.Amount),
	)

	if s.cache != nil {
		if err := s.cache.PutQuote(ctx, reg.Version, key, bd); err != nil {
			s.log.Warn("quote cache write failed", zap.Error(err))
		}
	}
	return bd, nil
}

// requestHash keys the cache by request content. Quotes are deterministic
// per (request, registry version), so a hash collision window beyond that
// pair does not exist.
func requestHash(req TripRequest) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
