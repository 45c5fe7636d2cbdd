package session

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/revocation"
	"github.com/go-co-op/gocron/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// SweeperConfig session index cleanup schedule
type SweeperConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"` // default 1h
}

func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{Enabled: true, Interval: time.Hour}
}

func (c *SweeperConfig) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultSweeperConfig().Interval
	}
}

func (c SweeperConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Interval, validation.Required, validation.Min(time.Second)),
	)
}

// IndexSweeper drops session set members whose liveness record has expired.
// Natural expiry removes the liveness key but never the set member.
type IndexSweeper struct {
	store     revocation.Store
	keys      revocation.Keys
	cfg       SweeperConfig
	metrics   *Metrics
	logger    *logger.CtxZapLogger
	scheduler gocron.Scheduler
}

// NewIndexSweeper metrics may be nil
func NewIndexSweeper(cfg SweeperConfig, store revocation.Store, keys revocation.Keys, metrics *Metrics, log *logger.CtxZapLogger) *IndexSweeper {
	cfg.ApplyDefaults()
	return &IndexSweeper{
		store:   store,
		keys:    keys,
		cfg:     cfg,
		metrics: metrics,
		logger:  log,
	}
}

// Sweep runs one pass and returns the number of members removed
func (s *IndexSweeper) Sweep(ctx context.Context) (int, error) {
	removed := 0
	for _, pattern := range s.keys.SessionSetPatterns() {
		err := s.store.Scan(ctx, pattern, func(setKey string) error {
			n, err := s.sweepSet(ctx, setKey)
			removed += n
			return err
		})
		if err != nil {
			s.metrics.RecordSwept(ctx, removed)
			return removed, err
		}
	}

	s.metrics.RecordSwept(ctx, removed)
	return removed, nil
}

func (s *IndexSweeper) sweepSet(ctx context.Context, setKey string) (int, error) {
	members, err := s.store.SetMembers(ctx, setKey)
	if err != nil {
		return 0, err
	}

	var stale []string
	for _, jti := range members {
		live, err := s.store.Exists(ctx, s.keys.Liveness(jti))
		if err != nil {
			return 0, err
		}
		if !live {
			stale = append(stale, jti)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := s.store.SetRemove(ctx, setKey, stale...); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// Start schedules Sweep every Interval. Calling Start on a disabled sweeper is a no-op.
func (s *IndexSweeper) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.InfoCtx(ctx, "session index sweeper disabled")
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(func() {
			n, err := s.Sweep(ctx)
			if err != nil {
				s.logger.ErrorCtx(ctx, "session index sweep failed", zap.Int("removed", n), zap.Error(err))
				return
			}
			s.logger.DebugCtx(ctx, "session index swept", zap.Int("removed", n))
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("schedule sweep: %w", err)
	}

	s.scheduler = scheduler
	scheduler.Start()
	s.logger.InfoCtx(ctx, "session index sweeper started", zap.Duration("interval", s.cfg.Interval))
	return nil
}

// Stop waits for a running sweep to finish
func (s *IndexSweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	err := s.scheduler.Shutdown()
	s.scheduler = nil
	return err
}
