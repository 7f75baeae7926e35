package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/connectcare/telehealth/internal/platform/cache"
)

// CachedDirectory serves doctor lookups from a cache in front of another
// DoctorDirectory. Cache failures degrade to the underlying directory.
type CachedDirectory struct {
	next   DoctorDirectory
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedDirectory(next DoctorDirectory, c cache.Cache, ttl time.Duration, logger zerolog.Logger) *CachedDirectory {
	return &CachedDirectory{next: next, cache: c, ttl: ttl, logger: logger}
}

func doctorKey(id int64) string {
	return fmt.Sprintf("doctor:%d", id)
}

func (d *CachedDirectory) GetDoctor(ctx context.Context, id int64) (*DoctorProfile, error) {
	key := doctorKey(id)

	raw, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var doc DoctorProfile
		if jerr := json.Unmarshal(raw, &doc); jerr == nil {
			return &doc, nil
		}
		d.logger.Warn().Str("key", key).Msg("discarding undecodable doctor cache entry")
	case !errors.Is(err, cache.ErrCacheMiss):
		d.logger.Warn().Err(err).Str("key", key).Msg("doctor cache read failed")
	}

	doc, err := d.next.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(doc); err == nil {
		if err := d.cache.Set(ctx, key, raw, d.ttl); err != nil {
			d.logger.Warn().Err(err).Str("key", key).Msg("doctor cache write failed")
		}
	}
	return doc, nil
}
