package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/infra/memory"
	pgstore "quiz-attempt-service/internal/infra/postgres"
	redisstore "quiz-attempt-service/internal/infra/redis"
	"quiz-attempt-service/internal/infra/sqlite"
	"quiz-attempt-service/internal/logger"
)

const serviceName = "quiz-attempt-service"

// stack holds the backends selected by config, shared by the start and result commands.
type stack struct {
	log      *logger.Logger
	redis    *redis.Client
	db       *bun.DB
	pool     *pgxpool.Pool
	quizzes  app.QuizRepository
	attempts app.AttemptRepository
	results  app.KVStore
	closers  []func() error
}

func buildStack(ctx context.Context, cfg config.Config, log *logger.Logger) (*stack, error) {
	s := &stack{log: log}
	if err := s.connect(ctx, cfg); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.wire(cfg); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *stack) connect(ctx context.Context, cfg config.Config) error {
	if cfg.Redis.Addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, s.redis.Close)
	}

	if cfg.Postgres.URL != "" {
		s.db = pgstore.OpenDB(cfg.Postgres.URL)
		s.closers = append(s.closers, s.db.Close)
		group, err := pgstore.Migrate(ctx, s.db)
		if err != nil {
			return err
		}
		if !group.IsZero() {
			s.log.Entry().WithField("group", group.String()).Info("migrations applied")
		}

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		s.pool = pool
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
	}
	return nil
}

func (s *stack) wire(cfg config.Config) error {
	var loader memory.QuizLoader
	switch {
	case s.pool != nil:
		loader = pgstore.NewQuizLoader(s.pool)
	case cfg.Quiz.Catalog != "":
		static, err := memory.LoadStaticQuizLoader(cfg.Quiz.Catalog)
		if err != nil {
			return err
		}
		loader = static
	default:
		return errors.New("no quiz source configured: set postgres.url or quiz.catalog")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if s.redis != nil {
		s.quizzes = redisstore.NewQuizRepository(s.redis, loader, quizTTL)
		s.attempts = redisstore.NewAttemptStore(s.redis, config.TTLDuration(cfg.Attempt.TTL, 2*time.Hour))
	} else {
		s.quizzes = memory.NewQuizRepository(loader, quizTTL)
		s.attempts = memory.NewAttemptStore()
	}

	driver, err := cfg.StorageDriver()
	if err != nil {
		return err
	}
	switch driver {
	case config.DriverRedis:
		if s.redis == nil {
			return errors.New("storage driver redis requires redis.addr")
		}
		s.results = redisstore.NewKVStore(s.redis)
	case config.DriverPostgres:
		if s.db == nil {
			return errors.New("storage driver postgres requires postgres.url")
		}
		s.results = pgstore.NewKVStore(s.db)
	case config.DriverSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = "results.db"
		}
		store, err := sqlite.New(path)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, store.Close)
		s.results = store
	default:
		s.results = memory.NewKVStore()
	}
	s.log.Entry().WithField("driver", driver).Info("result store ready")
	return nil
}

// Close releases backends in reverse order of acquisition.
func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.log.Entry().WithError(err).Warn("close failed")
		}
	}
	s.closers = nil
}
