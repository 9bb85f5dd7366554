package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"slidesync/internal/config"
	"slidesync/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var slidesDir string
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "add <video>",
		Short: "Queue a narrated slide video for re-timing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoPath, err := resolveExisting(args[0], "video")
			if err != nil {
				return err
			}
			slidesAbs, err := resolveExisting(slidesDir, "slides directory")
			if err != nil {
				return err
			}
			manifestAbs, err := resolveExisting(manifestPath, "manifest")
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				existing, err := store.FindByVideoPath(cmd.Context(), videoPath)
				if err != nil {
					return err
				}
				if existing != nil && !queue.IsTerminal(existing.Status) {
					return fmt.Errorf("video already queued as job %d (status %s)", existing.ID, existing.Status)
				}

				job, err := store.NewJob(cmd.Context(), videoPath, slidesAbs, manifestAbs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d: %s\n", job.ID, job.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&slidesDir, "slides", "s", "", "Directory holding exported slide images (slide_NN.png)")
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Translated speech-segment manifest (JSON)")
	_ = cmd.MarkFlagRequired("slides")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func resolveExisting(path, what string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s path must not be empty", what)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s path: %w", what, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("%s not found at %s", what, abs)
	}
	return abs, nil
}
