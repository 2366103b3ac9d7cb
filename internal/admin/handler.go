// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/sharaka/internal/core"
)

// Moderated is a console collection that can report status counts and
// be reloaded on demand.
type Moderated interface {
	Summary(ctx context.Context) (map[string]int, string)
	Reload(ctx context.Context) string
}

type Handler struct {
	projects     Moderated
	users        Moderated
	backendStats func() sql.DBStats
	backendPing  func(ctx context.Context) error
	redisStats   func() *redis.PoolStats
	redisPing    func(ctx context.Context) error
}

type HandlerConfig struct {
	Projects Moderated
	Users    Moderated

	// BackendStats is only set when the postgres driver is in use.
	BackendStats func() sql.DBStats
	BackendPing  func(ctx context.Context) error
	RedisStats   func() *redis.PoolStats
	RedisPing    func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		projects:     cfg.Projects,
		users:        cfg.Users,
		backendStats: cfg.BackendStats,
		backendPing:  cfg.BackendPing,
		redisStats:   cfg.RedisStats,
		redisPing:    cfg.RedisPing,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/admin/stats", h.GetStats)
		r.Get("/admin/stats/runtime", h.GetRuntimeStats)
		r.Post("/admin/refresh", h.Refresh)
	})
}

// GetStats reports the dashboard counters for both moderated entities
// together with backend, redis and runtime health.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		wg       sync.WaitGroup
		projects EntityStats
		users    EntityStats
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		projects = summarize(ctx, h.projects)
	}()
	go func() {
		defer wg.Done()
		users = summarize(ctx, h.users)
	}()
	wg.Wait()

	response := StatsResponse{
		Projects: projects,
		Users:    users,
		Backend: BackendStatus{
			Healthy: ping(ctx, h.backendPing),
			Stats:   h.getBackendStats(),
		},
		Redis: RedisStatus{
			Healthy: ping(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
	}

	core.OK(w, response)
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

// Refresh reloads both console collections from the backend.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := RefreshResponse{}
	if h.projects != nil {
		response.Projects = h.projects.Reload(ctx)
	}
	if h.users != nil {
		response.Users = h.users.Reload(ctx)
	}

	core.OK(w, response)
}

func summarize(ctx context.Context, m Moderated) EntityStats {
	if m == nil {
		return EntityStats{Counts: map[string]int{}}
	}

	counts, errMsg := m.Summary(ctx)
	total := 0
	for _, n := range counts {
		total += n
	}
	return EntityStats{Total: total, Counts: counts, Error: errMsg}
}

func ping(ctx context.Context, fn func(ctx context.Context) error) bool {
	if fn == nil {
		return true
	}
	return fn(ctx) == nil
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getBackendStats() *DBPoolStats {
	if h.backendStats == nil {
		return nil
	}

	stats := h.backendStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	if stats == nil {
		return nil
	}
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type StatsResponse struct {
	Projects EntityStats   `json:"projects"`
	Users    EntityStats   `json:"users"`
	Backend  BackendStatus `json:"backend"`
	Redis    RedisStatus   `json:"redis"`
	Runtime  RuntimeStats  `json:"runtime"`
}

type EntityStats struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
	Error  string         `json:"error,omitempty"`
}

type RefreshResponse struct {
	Projects string `json:"projects_error,omitempty"`
	Users    string `json:"users_error,omitempty"`
}

type BackendStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
