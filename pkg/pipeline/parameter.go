package pipeline

import (
	"context"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/params"
)

// buildParameter merges the boat and configuration constants.
func buildParameter(ctx context.Context, j *job, out string) error {
	ps, err := params.Build(j.ConstantsDir, j.boat, j.config)
	if err != nil {
		return err
	}
	if err := params.Save(out, ps); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("parameters written", "values", len(ps.Values), "path", out)
	return nil
}
