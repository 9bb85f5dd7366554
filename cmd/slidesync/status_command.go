package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"slidesync/internal/config"
	"slidesync/internal/deps"
	"slidesync/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline readiness and queue health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
				for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
					kind := statusOK
					message := status.Command
					if !status.Available {
						kind = statusError
						if status.Optional {
							kind = statusWarn
						}
						message = status.Detail
					}
					fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
				}

				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSectionHeader("Queue", colorize))
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderStatusLine("Total", statusInfo, fmt.Sprintf("%d", health.Total), colorize))
				fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, fmt.Sprintf("%d", health.Pending), colorize))
				fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, fmt.Sprintf("%d", health.Processing), colorize))
				completedKind := statusOK
				if health.Completed == 0 {
					completedKind = statusInfo
				}
				fmt.Fprintln(out, renderStatusLine("Completed", completedKind, fmt.Sprintf("%d", health.Completed), colorize))
				failedKind := statusOK
				if health.Failed > 0 {
					failedKind = statusError
				}
				fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", health.Failed), colorize))
				reviewKind := statusOK
				if health.Review > 0 {
					reviewKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Review", reviewKind, fmt.Sprintf("%d", health.Review), colorize))

				mgr, err := ctx.newManager(cfg, store)
				if err != nil {
					return err
				}
				summary := mgr.Status(cmd.Context())

				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSectionHeader("Stages", colorize))
				names := make([]string, 0, len(summary.StageHealth))
				for name := range summary.StageHealth {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					stageHealth := summary.StageHealth[name]
					if stageHealth.Ready {
						fmt.Fprintln(out, renderStatusLine(name, statusOK, "", colorize))
					} else {
						fmt.Fprintln(out, renderStatusLine(name, statusError, stageHealth.Detail, colorize))
					}
				}
				return nil
			})
		},
	}
}
