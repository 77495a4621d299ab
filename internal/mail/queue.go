package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the Redis list jobs are pushed to.
const DefaultQueueKey = "pawsnest:mail:jobs"

// Queue is a FIFO of jobs on a Redis list: RPUSH to enqueue, BLPOP to
// take. Jobs survive an API restart; a job popped by a worker that then
// crashes is lost, which matches the at-most-once delivery we promise.
type Queue struct {
	rdb redis.Cmdable
	key string
}

func NewQueue(rdb redis.Cmdable, key string) *Queue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &Queue{rdb: rdb, key: key}
}

func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return errJob("encode job", job, err)
	}
	if err := q.rdb.RPush(ctx, q.key, payload).Err(); err != nil {
		return errJob("enqueue", job, err)
	}
	return nil
}

// Dequeue blocks up to wait for a job. It returns (nil, nil) when the
// wait expires with the queue still empty.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (*Job, error) {
	res, err := q.rdb.BLPop(ctx, wait, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue job: %w", err)
	}
	// BLPOP replies [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("dequeue job: unexpected reply of %d elements", len(res))
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// Len is the number of jobs waiting.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return n, nil
}

// BacklogCheck returns a health check that fails once more than limit
// jobs are waiting, which means the worker is down or can't keep up.
func (q *Queue) BacklogCheck(limit int64) func(context.Context) error {
	return func(ctx context.Context) error {
		n, err := q.Len(ctx)
		if err != nil {
			return err
		}
		if n > limit {
			return fmt.Errorf("mail backlog: %d jobs waiting (limit %d)", n, limit)
		}
		return nil
	}
}

// Ping checks the Redis connection. Used by the health endpoint.
func (q *Queue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}
