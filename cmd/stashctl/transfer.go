package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var flagOut string

type exporter interface {
	Export(ctx context.Context, teamID primitive.ObjectID) (models.ExportDocument, error)
}

type importer interface {
	Import(ctx context.Context, teamID primitive.ObjectID, r io.Reader) (lifecycle.ImportResult, error)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a team's prompts as an export document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStash(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, teamID, err := actingContext(cmd.Context(), s, flagTeam, flagAs)
		if err != nil {
			return err
		}

		write := func(w io.Writer) error { return runExport(ctx, s.prompts, teamID, w) }
		if flagOut == "" {
			return write(cmd.OutOrStdout())
		}
		return writeFile(createFile, flagOut, write)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create prompts from an export document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		s, err := openStash(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, teamID, err := actingContext(cmd.Context(), s, flagTeam, flagAs)
		if err != nil {
			return err
		}
		return runImport(ctx, s.prompts, teamID, f, cmd.OutOrStdout())
	},
}

func init() {
	exportCmd.Flags().StringVar(&flagOut, "out", "", "write to this file instead of stdout")
}

func runExport(ctx context.Context, ex exporter, teamID primitive.ObjectID, w io.Writer) error {
	doc, err := ex.Export(ctx, teamID)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func createFile(path string) (io.WriteCloser, error) { return os.Create(path) }

// writeFile runs write against a new file at path. A failed close is
// reported, since it can mean the file was cut short.
func writeFile(create func(string) (io.WriteCloser, error), path string, write func(io.Writer) error) (err error) {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func runImport(ctx context.Context, im importer, teamID primitive.ObjectID, r io.Reader, w io.Writer) error {
	res, err := im.Import(ctx, teamID, r)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	_, err = fmt.Fprintln(w, res.Summary())
	return err
}
