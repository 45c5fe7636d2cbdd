package redis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// MetricsHook implements redis.Hook to record command metrics
type MetricsHook struct {
	metrics  *Metrics
	instance string
}

func NewMetricsHook(metrics *Metrics, instance string) *MetricsHook {
	return &MetricsHook{metrics: metrics, instance: instance}
}

func (h *MetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *MetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.metrics.RecordCommand(ctx, h.instance, cmd.Name(), time.Since(start), err)
		return err
	}
}

// ProcessPipelineHook splits the batch latency evenly across its commands
func (h *MetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		if len(cmds) == 0 {
			return err
		}

		per := time.Since(start) / time.Duration(len(cmds))
		for _, cmd := range cmds {
			h.metrics.RecordCommand(ctx, h.instance, cmd.Name(), per, cmd.Err())
		}
		return err
	}
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
