package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowfi/flowai/internal/llm"
	"github.com/flowfi/flowai/internal/models"
	"github.com/flowfi/flowai/internal/scoring"
)

func infoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show core engine metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := scoring.New().ModelInfo()
			if opts.output == formatJSON {
				return writeJSON(cmd.OutOrStdout(), info)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", info.Name, info.Version)
			fmt.Fprintf(w, "Type:       %s\n", info.Type)
			fmt.Fprintf(w, "Components: %s\n", strings.Join(info.Components, ", "))
			fmt.Fprintf(w, "Size:       %.1f MB\n", info.SizeMB)
			fmt.Fprintf(w, "Inference:  ~%d ms\n", info.InferenceTimeMS)
			return nil
		},
	}
}

func modelsCmd(opts *rootOptions) *cobra.Command {
	var vram float64

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List local models and the stack recommended for the available VRAM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("vram") {
				vram = opts.cfg.AvailableVRAMGB
			}
			all := models.All()
			stack := models.RecommendedStack(vram)

			if opts.output == formatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"models":            all,
					"recommended_stack": stack,
					"available_vram_gb": vram,
				})
			}

			w := cmd.OutOrStdout()
			for _, m := range all {
				fmt.Fprintf(w, "%-18s %-22s %5s  %4.1f GB  %s\n", m.Name, m.Tag, m.Parameters, m.MinVRAMGB, m.Description)
			}

			fmt.Fprintf(w, "\nRecommended for %.1f GB VRAM:\n", vram)
			if len(stack) == 0 {
				fmt.Fprintln(w, "  (none; the core engine runs without a GPU)")
				return nil
			}
			roles := make([]string, 0, len(stack))
			for role := range stack {
				roles = append(roles, role)
			}
			sort.Strings(roles)
			for _, role := range roles {
				fmt.Fprintf(w, "  %-13s %s (%s)\n", role, stack[role].Name, stack[role].Tag)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&vram, "vram", 0, "available GPU memory in GB (default AVAILABLE_VRAM_GB)")
	cmd.AddCommand(pullCmd(opts))
	return cmd
}

func pullCmd(opts *rootOptions) *cobra.Command {
	var (
		tags    []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull the recommended models into the local Ollama runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := llm.NewOllamaClient(llm.OllamaConfig{
				BaseURL: opts.cfg.OllamaBaseURL,
				Timeout: timeout,
			})
			results := client.PullModels(cmd.Context(), tags, opts.log)

			if opts.output == formatJSON {
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				for _, tag := range tags {
					state := "ok"
					if !results[tag] {
						state = "failed"
					}
					fmt.Fprintf(w, "%-18s %s\n", tag, state)
				}
			}

			failed := 0
			for _, ok := range results {
				if !ok {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pulls failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "model", llm.RecommendedPulls, "model tag to pull (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "per-model download timeout")
	return cmd
}
