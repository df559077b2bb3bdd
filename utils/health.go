package utils

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthCheck probes one external dependency.
type HealthCheck func(ctx context.Context) error

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Healthy   bool            `json:"healthy"`
	Checks    map[string]bool `json:"checks"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// HealthMonitor runs named checks periodically and keeps the latest snapshot.
type HealthMonitor struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(checks map[string]HealthCheck, timeout time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{checks: checks, timeout: timeout, logger: logger}
}

// Status returns latest stored health snapshot.
func (h *HealthMonitor) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// CheckNow runs every check once and stores the result.
func (h *HealthMonitor) CheckNow(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true, Checks: make(map[string]bool, len(h.checks))}
	for name, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := check(checkCtx)
		cancel()
		if err != nil {
			h.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			status.Healthy = false
		}
		status.Checks[name] = err == nil
	}
	status.CheckedAt = time.Now()

	h.mu.Lock()
	h.current = status
	h.mu.Unlock()
	return status
}

// Start performs periodic health checks until ctx is done.
func (h *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	h.CheckNow(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.CheckNow(ctx)
			}
		}
	}()
}
