package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-auth/internal/jobs"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

type stubRefresher struct {
	calls []int32
	mask  uint64
	err   error
}

func (s *stubRefresher) RefreshPermission(ctx context.Context, userID int32) (uint64, error) {
	s.calls = append(s.calls, userID)
	return s.mask, s.err
}

func newJob(r Refresher) *RefreshPermissionJob {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRefreshPermissionJob(r, logger, jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func TestNewRefreshPermissionTask(t *testing.T) {
	task, err := NewRefreshPermissionTask(42)
	require.NoError(t, err)
	assert.Equal(t, TaskRefreshPermission, task.Type())
	assert.JSONEq(t, `{"user_id":42}`, string(task.Payload()))
}

func TestRefreshPermissionJobHandle(t *testing.T) {
	task, err := NewRefreshPermissionTask(42)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		stub := &stubRefresher{mask: 5}
		require.NoError(t, newJob(stub).Handle(context.Background(), task))
		assert.Equal(t, []int32{42}, stub.calls)
	})

	t.Run("unknown user is not retried", func(t *testing.T) {
		stub := &stubRefresher{err: shared.ErrUserNotExist}
		err := newJob(stub).Handle(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.ErrorIs(t, err, shared.ErrUserNotExist)
	})

	t.Run("missing session is not retried", func(t *testing.T) {
		stub := &stubRefresher{err: fmt.Errorf("%w: rbac_login_alice", shared.ErrSessionNotFound)}
		assert.ErrorIs(t, newJob(stub).Handle(context.Background(), task), asynq.SkipRetry)
	})

	t.Run("internal errors are retried", func(t *testing.T) {
		stub := &stubRefresher{err: fmt.Errorf("%w: cache down", shared.ErrInternal)}
		err := newJob(stub).Handle(context.Background(), task)
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("bad payload", func(t *testing.T) {
		stub := &stubRefresher{}
		bad := asynq.NewTask(TaskRefreshPermission, []byte("{"))
		assert.ErrorIs(t, newJob(stub).Handle(context.Background(), bad), asynq.SkipRetry)
		assert.Empty(t, stub.calls)
	})

	t.Run("not configured", func(t *testing.T) {
		var job *RefreshPermissionJob
		assert.Error(t, job.Handle(context.Background(), task))
	})
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(f.tasks)), Type: task.Type(), Payload: task.Payload()}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestClientEnqueueRefresh(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := NewClientWith(fake)

	id, err := client.EnqueueRefresh(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	require.Len(t, fake.tasks, 1)
	assert.JSONEq(t, `{"user_id":7}`, string(fake.tasks[0].Payload()))

	fake.err = errors.New("redis down")
	_, err = client.EnqueueRefresh(context.Background(), 7)
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		body      string
	}{
		{name: "no inspector", inspector: nil, status: http.StatusOK, body: `{"queue":"default","pending":0}`},
		{name: "pending", inspector: fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3}}, status: http.StatusOK, body: `{"queue":"default","pending":3}`},
		{name: "down", inspector: fakeInspector{err: errors.New("down")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.inspector, nil).MountRoutes(r)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tc.status, rr.Code)
			if tc.body == "" {
				return
			}
			var env struct {
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.NewDecoder(strings.NewReader(rr.Body.String())).Decode(&env))
			assert.JSONEq(t, tc.body, string(env.Data))
		})
	}
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	assert.Error(t, err)
}
