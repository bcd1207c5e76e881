package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"grus/internal/storage"
)

func newExportCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			d, err := store.Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}
			data, err := storage.MarshalDump(d)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks to %s\n", len(d.Nodes), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace every task with the contents of a TOML export",
		Long:  "Replace every task with the contents of a TOML export. Use - to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			d, err := storage.UnmarshalDump(data)
			if err != nil {
				return err
			}

			_, store, err := opts.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Import(cmd.Context(), d); err != nil {
				return fmt.Errorf("importing: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", len(d.Nodes))
			return nil
		},
	}
}
