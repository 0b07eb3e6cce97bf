package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/data/redisStore"
	"github.com/akolanti/ChatDocs/internal/domain/jobModel"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

const jobKeyPrefix = "job:"

type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisJobStore returns nil when redis is not reachable so callers can fall back to memory.
func GetRedisJobStore(ctx context.Context, settings config.RedisSettings) *RedisJobStore {
	s := redisStore.GetRedisStore(ctx, settings, config.RedisJobStore)
	if s == nil {
		return nil
	}
	return NewRedisJobStore(s)
}

func NewRedisJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "jobId", job.Id)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, jobKeyPrefix+job.Id, data, config.RedisJobStoreTTL)
	if err != nil {
		log.Error("Saving job to Redis failed", "error", err)
		return err
	}
	log.Debug("Saved job to Redis", "status", job.Status)
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	val, err := s.store.Get(ctx, jobKeyPrefix+jobId)
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		s.logger.Error("Reading job from Redis failed", "jobId", jobId, "error", err)
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		s.logger.Error("Corrupt job in Redis", "jobId", jobId, "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobKeyPrefix+jobID); err != nil {
		s.logger.Error("Error deleting job from Redis", "jobId", jobID, "error", err)
		return
	}
	s.logger.Debug("Job deleted from Redis", "jobId", jobID)
}
