package handlers

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrisapp/hris_backend/internal/hrkafka"
	"github.com/hrisapp/hris_backend/internal/logging"
)

// publish is fire-and-forget: a broker failure is logged, never surfaced to
// the client.
func publish(c echo.Context, p *hrkafka.Producer, topic, key string, event map[string]interface{}) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
