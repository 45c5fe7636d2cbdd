package health

import (
	"context"
	"sync"
	"time"
)

// Aggregator runs every registered Checker concurrently under one timeout
type Aggregator struct {
	checkers []Checker
	timeout  time.Duration
	metadata map[string]any
	mu       sync.RWMutex
	now      func() time.Time
}

// NewAggregator creates an aggregator; timeout <= 0 falls back to the default
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Aggregator{
		timeout:  timeout,
		metadata: make(map[string]any),
		now:      time.Now,
	}
}

// Register adds checkers; nil entries are ignored
func (a *Aggregator) Register(checkers ...Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range checkers {
		if c != nil {
			a.checkers = append(a.checkers, c)
		}
	}
}

// SetMetadata 设置元数据（服务名、版本）
func (a *Aggregator) SetMetadata(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metadata[key] = value
}

// Check 并发执行全部检查项，任一失败即整体 unhealthy
func (a *Aggregator) Check(ctx context.Context) *Response {
	start := a.now()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	metadata := make(map[string]any, len(a.metadata))
	for k, v := range a.metadata {
		metadata[k] = v
	}
	a.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			results[i] = a.checkOne(ctx, c)
		}(i, c)
	}
	wg.Wait()

	resp := &Response{
		Status:    StatusHealthy,
		Timestamp: start,
		Checks:    make(map[string]CheckResult, len(results)),
		Metadata:  metadata,
	}
	for _, r := range results {
		resp.Checks[r.Name] = r
		if r.Status != StatusHealthy {
			resp.Status = StatusUnhealthy
		}
	}
	resp.Duration = a.now().Sub(start)
	return resp
}

func (a *Aggregator) checkOne(ctx context.Context, c Checker) CheckResult {
	start := a.now()
	result := CheckResult{Name: c.Name(), Status: StatusHealthy}

	if err := c.Check(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	result.Duration = a.now().Sub(start)
	return result
}
