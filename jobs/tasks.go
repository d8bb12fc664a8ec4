package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRefreshPermission recomputes the cached permission mask of one user.
	TaskRefreshPermission = "auth:refresh_permission"
)

// RefreshPermissionPayload identifies the user whose mask is recomputed.
type RefreshPermissionPayload struct {
	UserID int32 `json:"user_id"`
}

// NewRefreshPermissionTask constructs an Asynq task for userID. Each task gets
// a unique id of the form refresh:<user_id>:<uuid>.
func NewRefreshPermissionTask(userID int32) (*asynq.Task, error) {
	body, err := json.Marshal(RefreshPermissionPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	id := "refresh:" + strconv.FormatInt(int64(userID), 10) + ":" + uuid.NewString()
	return asynq.NewTask(TaskRefreshPermission, body, asynq.Queue(QueueDefault), asynq.TaskID(id)), nil
}

func decodeRefreshPayload(t *asynq.Task) (RefreshPermissionPayload, error) {
	var payload RefreshPermissionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return payload, nil
}

// Enqueuer is the subset of asynq.Client used by Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}
