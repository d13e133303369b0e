package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/korjavin/gkentei/cache"
)

const cacheHeader = "X-Cache"

type loader func(ctx context.Context) (any, error)

// cached serves key from partition p, running load on a miss. Concurrent
// misses for the same key and generation share one load. Nothing is stored
// when load fails or when p was invalidated while load was running.
func (s *Server) cached(c echo.Context, p cache.Partition, key string, load loader) error {
	if body, ok := s.cache.Get(p, key); ok {
		c.Response().Header().Set(cacheHeader, "HIT")
		return c.JSONBlob(http.StatusOK, body)
	}

	gen := s.cache.Generation(p)
	ctx := context.WithoutCancel(c.Request().Context())
	v, err, _ := s.loads.Do(fmt.Sprintf("%s#%d|%s", p, gen, key), func() (any, error) {
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode response: %w", err)
		}
		s.cache.SetIfGeneration(p, key, body, gen)
		return body, nil
	})
	if err != nil {
		return err
	}

	c.Response().Header().Set(cacheHeader, "MISS")
	return c.JSONBlob(http.StatusOK, v.([]byte))
}
