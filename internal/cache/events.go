package cache

import (
	"context"
	"encoding/json"
)

// PublishChannel carries notifications about resources going public so
// interested processes (feed builders, mailers) can react.
const PublishChannel = "zilean:published"

// PublishEvent describes a resource that was just published or unpublished.
type PublishEvent struct {
	Kind      string `json:"kind"`
	ID        uint   `json:"id"`
	AuthorID  uint   `json:"author"`
	Published bool   `json:"published"`
}

// NotifyPublish broadcasts a publish event. Best-effort: a missing or
// unreachable Redis never fails the request.
func NotifyPublish(ctx context.Context, ev PublishEvent) {
	if client == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	client.Publish(ctx, PublishChannel, payload)
}
