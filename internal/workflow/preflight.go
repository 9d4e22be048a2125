package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tempo/internal/logging"
	"tempo/internal/preflight"
	"tempo/internal/services"
)

// runPreflightChecks validates the media directory before any file is
// transcoded. Returns nil when all checks pass, or an error describing all
// failures.
func (s *Session) runPreflightChecks(ctx context.Context, logger *slog.Logger) error {
	results := preflight.RunBatchChecks(ctx, s.cfg)

	var failures []string
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logger.Error("preflight check failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "fix paths.media_dir in the config"),
		)
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}

	if len(failures) > 0 {
		return services.Wrap(services.ErrConfiguration, "workflow", "preflight", strings.Join(failures, "; "), nil)
	}
	return nil
}
