package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"slidesync/internal/config"
	"slidesync/internal/queue"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run [job-id]",
		Short: "Process one job (or every runnable job) to completion and exit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				mgr, err := ctx.newManager(cfg, store)
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if _, err := store.ResetStuckProcessing(runCtx); err != nil {
					return fmt.Errorf("reset stuck jobs: %w", err)
				}

				var ids []int64
				if len(args) == 1 {
					id, err := strconv.ParseInt(args[0], 10, 64)
					if err != nil {
						return fmt.Errorf("invalid job id %q", args[0])
					}
					ids = append(ids, id)
				} else {
					jobs, err := store.List(runCtx)
					if err != nil {
						return err
					}
					for _, job := range jobs {
						if !queue.IsTerminal(job.Status) {
							ids = append(ids, job.ID)
						}
					}
					if len(ids) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No runnable jobs in the queue")
						return nil
					}
				}

				var firstErr error
				for _, id := range ids {
					job, err := mgr.RunJob(runCtx, id)
					if err != nil {
						if firstErr == nil {
							firstErr = err
						}
						status := "unknown"
						if job != nil {
							status = string(job.Status)
						}
						fmt.Fprintf(cmd.OutOrStdout(), "Job %d: %s (%v)\n", id, status, err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d: %s", job.ID, job.Status)
					if job.FinalFile != "" {
						fmt.Fprintf(cmd.OutOrStdout(), " -> %s", job.FinalFile)
						if info, err := os.Stat(job.FinalFile); err == nil {
							fmt.Fprintf(cmd.OutOrStdout(), " (%s)", humanize.Bytes(uint64(info.Size())))
						}
					}
					fmt.Fprintln(cmd.OutOrStdout())
				}
				return firstErr
			})
		},
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Poll the queue and process jobs until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				mgr, err := ctx.newManager(cfg, store)
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if err := mgr.Start(runCtx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Processing queue; press Ctrl-C to stop")
				<-runCtx.Done()
				mgr.Stop()
				return nil
			})
		},
	}
}
