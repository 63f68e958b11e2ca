package chatsvc

import (
	"context"

	logpkg "github.com/rzbill/blinkhub/pkg/log"
)

// LogConnector is the default Connector. It accepts every call and logs the
// messages it would have delivered.
type LogConnector struct {
	logger logpkg.Logger
}

func NewLogConnector(logger logpkg.Logger) *LogConnector {
	return &LogConnector{logger: logger.WithComponent("chat-connector")}
}

func (c *LogConnector) Connect(ctx context.Context, token string) error { return nil }

func (c *LogConnector) Disconnect(ctx context.Context) error { return nil }

func (c *LogConnector) Send(ctx context.Context, t Target, text string) error {
	c.logger.Info("notify", logpkg.Str("target", t.ID), logpkg.Str("type", string(t.Type)), logpkg.Str("text", text))
	return nil
}
