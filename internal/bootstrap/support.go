package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/1kken/SideKickCX/internal/config"
	"github.com/1kken/SideKickCX/internal/observability"
	"github.com/1kken/SideKickCX/internal/store/rabbitmq"
	"github.com/1kken/SideKickCX/internal/support"
)

// SupportConfig maps the tunables of cfg onto the support service.
func SupportConfig(cfg config.Config, m *observability.Metrics) support.Config {
	return support.Config{
		Limits: support.Limits{
			Products: cfg.ContextProducts,
			Orders:   cfg.ContextOrders,
			Logs:     cfg.ContextLogs,
		},
		Matcher: support.PrefixMatcher{Length: cfg.FingerprintLength},
		Metrics: m,
	}
}

// Support wires the service over gdb. In queue mode audit entries go through
// RabbitMQ; the returned closer releases that connection.
func Support(ctx context.Context, cfg config.Config, gdb *gorm.DB, m *observability.Metrics) (*support.Service, func() error, error) {
	provider, err := Provider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	stores := support.NewRepo(gdb).Stores()
	closer := func() error { return nil }

	if cfg.AuditMode == config.AuditQueue {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("audit queue: %w", err)
		}
		stores.Audit = pub
		closer = pub.Close
		slog.Info("audit entries are queued", "queue", cfg.RabbitQueue)
	}

	return support.NewService(stores, provider, SupportConfig(cfg, m)), closer, nil
}
