package jobxredis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/jobx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisErrors = errx.NewRegistry("JOBX_REDIS")

var (
	ErrStorage   = redisErrors.Register("STORAGE", errx.TypeExternal, http.StatusInternalServerError, "Job queue unavailable")
	ErrNotFound  = redisErrors.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Job not found")
	ErrCorrupted = redisErrors.Register("CORRUPTED", errx.TypeInternal, http.StatusInternalServerError, "Stored job is unreadable")
)

// finishedTTL bounds how long completed and failed jobs stay inspectable.
const finishedTTL = 24 * time.Hour

// RedisQueue implements jobx.Queue backed by Redis lists and sorted sets.
type RedisQueue struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRedisQueue(rdb redis.UniversalClient) *RedisQueue {
	return &RedisQueue{rdb: rdb, now: func() time.Time { return time.Now().UTC() }}
}

func queueKey(name string) string     { return "jobx:queue:" + name }
func scheduledKey(name string) string { return "jobx:scheduled:" + name }
func jobKey(id string) string         { return "jobx:job:" + id }

func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.rdb.Ping(ctx).Err(); err != nil {
		return redisErrors.NewWithCause(ErrStorage, err).WithDetail("op", "ping")
	}
	return nil
}

// Enqueue stores the job record and pushes its id onto the ready list in one
// pipeline.
func (q *RedisQueue) Enqueue(ctx context.Context, job jobx.Job) (string, error) {
	now := q.now()
	info := &jobx.JobInfo{
		ID:         uuid.NewString(),
		Type:       job.Type,
		Queue:      job.Queue,
		Payload:    job.Payload,
		Status:     jobx.JobStatusPending,
		MaxRetries: job.MaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	data, err := json.Marshal(info)
	if err != nil {
		return "", redisErrors.NewWithCause(ErrCorrupted, err)
	}

	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, jobKey(info.ID), data, 0)
		pipe.LPush(ctx, queueKey(job.Queue), info.ID)
		return nil
	})
	if err != nil {
		return "", redisErrors.NewWithCause(ErrStorage, err).
			WithDetail("op", "enqueue").
			WithDetail("queue", job.Queue)
	}
	return info.ID, nil
}

func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*jobx.JobInfo, error) {
	data, err := q.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, redisErrors.New(ErrNotFound).WithDetail("job_id", jobID)
	}
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrStorage, err).WithDetail("op", "get").WithDetail("job_id", jobID)
	}

	var info jobx.JobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, redisErrors.NewWithCause(ErrCorrupted, err).WithDetail("job_id", jobID)
	}
	return &info, nil
}

// Dequeue blocks until a job id is available on one of the queues or the
// timeout expires. A timeout returns (nil, nil).
func (q *RedisQueue) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.JobInfo, error) {
	keys := make([]string, len(queues))
	for i, name := range queues {
		keys[i] = queueKey(name)
	}

	result, err := q.rdb.BRPop(ctx, timeout, keys...).Result()
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return nil, nil
	}
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrStorage, err).WithDetail("op", "dequeue")
	}

	info, err := q.GetJob(ctx, result[1])
	if err != nil {
		return nil, err
	}
	info.Status = jobx.JobStatusActive
	info.Attempts++
	if err := q.save(ctx, info, 0); err != nil {
		return nil, err
	}
	return info, nil
}

func (q *RedisQueue) Complete(ctx context.Context, jobID string) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	info.Status = jobx.JobStatusCompleted
	info.Error = ""
	return q.save(ctx, info, finishedTTL)
}

// Fail records the failure and reports whether another attempt is allowed.
func (q *RedisQueue) Fail(ctx context.Context, jobID string, errMsg string) (bool, error) {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}

	retry := info.CanRetry()
	info.Error = errMsg
	ttl := time.Duration(0)
	if retry {
		info.Status = jobx.JobStatusRetrying
	} else {
		info.Status = jobx.JobStatusFailed
		ttl = finishedTTL
	}
	return retry, q.save(ctx, info, ttl)
}

// Retry schedules the job on its queue's sorted set; PromoteScheduled moves
// it back to the ready list once due.
func (q *RedisQueue) Retry(ctx context.Context, jobID string, delay time.Duration) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	due := float64(q.now().Add(delay).Unix())
	if err := q.rdb.ZAdd(ctx, scheduledKey(info.Queue), redis.Z{Score: due, Member: jobID}).Err(); err != nil {
		return redisErrors.NewWithCause(ErrStorage, err).WithDetail("op", "retry").WithDetail("job_id", jobID)
	}
	return nil
}

var promoteScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
    redis.call('LPUSH', KEYS[2], id)
end
if #ids > 0 then
    redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
end
return #ids
`)

// PromoteScheduled atomically moves due jobs back to the ready list.
func (q *RedisQueue) PromoteScheduled(ctx context.Context, queues []string) error {
	now := strconv.FormatInt(q.now().Unix(), 10)
	for _, name := range queues {
		err := promoteScript.Run(ctx, q.rdb, []string{scheduledKey(name), queueKey(name)}, now).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return redisErrors.NewWithCause(ErrStorage, err).WithDetail("op", "promote").WithDetail("queue", name)
		}
	}
	return nil
}

func (q *RedisQueue) save(ctx context.Context, info *jobx.JobInfo, ttl time.Duration) error {
	info.UpdatedAt = q.now()
	data, err := json.Marshal(info)
	if err != nil {
		return redisErrors.NewWithCause(ErrCorrupted, err).WithDetail("job_id", info.ID)
	}
	if err := q.rdb.Set(ctx, jobKey(info.ID), data, ttl).Err(); err != nil {
		return redisErrors.NewWithCause(ErrStorage, err).WithDetail("op", "save").WithDetail("job_id", info.ID)
	}
	return nil
}
