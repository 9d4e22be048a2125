package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tempo/internal/config"
	"tempo/internal/logging"
	"tempo/internal/preflight"
	"tempo/internal/staging"
	"tempo/internal/textutil"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, ffmpeg, and leftover preview scratch space",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status := newStatusWriter(cmd.OutOrStdout())

			status.section("Environment")
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				status.line(result.Name, textutil.Ternary(result.Passed, statusOK, statusError), result.Detail)
			}

			status.section("Dependencies")
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				switch {
				case dep.Available:
					status.line(dep.Name, statusOK, dep.Command)
				case dep.Optional:
					status.line(dep.Name, statusWarn, dep.Detail)
				default:
					status.line(dep.Name, statusError, dep.Detail)
				}
			}

			status.section("Preview scratch")
			kind, detail := previewScratchStatus(cfg)
			status.line("Scopes", kind, detail)

			if status.problems > 0 {
				return fmt.Errorf("doctor found %s", plural(status.problems, "problem", "problems"))
			}
			return nil
		},
	}
}

func previewScratchStatus(cfg *config.Config) (statusKind, string) {
	scopes, err := staging.ListScopes(cfg.PreviewRoot())
	if err != nil {
		return statusWarn, err.Error()
	}
	if len(scopes) == 0 {
		return statusOK, "none"
	}
	var total int64
	for _, scope := range scopes {
		total += scope.Size
	}
	return statusWarn, fmt.Sprintf("%d leftover (%s); removed automatically after %s",
		len(scopes), logging.FormatBytes(total), cfg.PreviewStaleAge())
}
