package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHealthMonitor_CheckNow(t *testing.T) {
	monitor := NewHealthMonitor(map[string]HealthCheck{
		"redis":    func(ctx context.Context) error { return nil },
		"airports": func(ctx context.Context) error { return errors.New("source down") },
	}, time.Second, zap.NewNop())

	status := monitor.CheckNow(context.Background())
	assert.False(t, status.Healthy)
	assert.True(t, status.Checks["redis"])
	assert.False(t, status.Checks["airports"])
	assert.Equal(t, status, monitor.Status())
}

func TestHealthMonitor_AllHealthy(t *testing.T) {
	monitor := NewHealthMonitor(map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return nil },
	}, time.Second, zap.NewNop())

	assert.True(t, monitor.CheckNow(context.Background()).Healthy)
}

func TestHealthMonitor_ChecksAreBoundedByTimeout(t *testing.T) {
	monitor := NewHealthMonitor(map[string]HealthCheck{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, 10*time.Millisecond, zap.NewNop())

	status := monitor.CheckNow(context.Background())
	assert.False(t, status.Checks["slow"])
}
