package service

import (
	"context"
	"time"

	"github.com/utidosgames/storefront/pkg/events"
	"github.com/utidosgames/storefront/pkg/logging"
)

const publishTimeout = 5 * time.Second

// publish sends event and logs failures instead of returning them.
func publish(ctx context.Context, pub events.Publisher, topic, key string, event map[string]any) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", topic, "type", event["type"], "error", err)
	}
}
