package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowfi/flowai/internal/document"
	"github.com/flowfi/flowai/internal/repository"
	"github.com/flowfi/flowai/internal/services"
)

func analyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		mode         string
		documentType string
	)

	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Grade an invoice document",
		Long: `Grade an invoice document read from a .txt or .html file, or from stdin when
the argument is "-" or omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			doc, err := readDocument(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			if strings.TrimSpace(doc.Text) == "" {
				return errors.New("document contains no text")
			}

			cfg := *opts.cfg
			if mode != "" {
				cfg.AnalysisMode = mode
			}
			svcs, err := services.NewServices(&cfg, repository.NewMemoryRepository(1), opts.log)
			if err != nil {
				return err
			}

			result, err := svcs.Analysis.Analyze(cmd.Context(), services.AnalysisRequest{
				DocumentType: documentType,
				Document:     &doc,
			})
			if err != nil {
				return err
			}

			if opts.output == formatJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeResult(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "core_only", "analysis mode (core_only, local_only, cloud_only, hybrid, auto)")
	cmd.Flags().StringVarP(&documentType, "type", "t", "invoice", "document type given to language models")

	return cmd
}

// readDocument loads path, or stdin for "-", as a normalised document
func readDocument(stdin io.Reader, path string) (document.Document, error) {
	if path == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, document.MaxUploadBytes+1))
		if err != nil {
			return document.Document{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) > document.MaxUploadBytes {
			return document.Document{}, errors.New("input exceeds 2 MB limit")
		}
		return document.FromBytes(data, "stdin.txt", "")
	}

	f, err := os.Open(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	return document.FromUpload(f, filepath.Base(path), "")
}
