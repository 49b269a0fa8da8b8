package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/cli"
	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/config"
	"github.com/Veraticus/shot-grouper/internal/preset"
	"github.com/Veraticus/shot-grouper/internal/storage"
	"github.com/spf13/cobra"
)

func presetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage saved grouping presets",
		Long:  `List, inspect, delete, export, import and back up saved grouping presets.`,
	}

	// Subcommands
	cmd.AddCommand(presetsListCmd())
	cmd.AddCommand(presetsShowCmd())
	cmd.AddCommand(presetsDeleteCmd())
	cmd.AddCommand(presetsExportCmd())
	cmd.AddCommand(presetsImportCmd())
	cmd.AddCommand(presetsBackupCmd())

	return cmd
}

// withStore loads the engine config, opens the preset store and runs fn.
func withStore(cmd *cobra.Command, fn func(store *storage.SQLiteStorage) error) error {
	cfg, err := config.LoadEngineConfig(nil)
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStorage(store)
	return fn(store)
}

// presetNotFound turns a missing preset into a message for the user.
func presetNotFound(name string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("preset %q not found", name), err)
	}
	return err
}

func presetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				records, err := store.ListPresets(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatTitle("Presets"))
				fmt.Fprintln(out)
				fmt.Fprintln(out, cli.RenderPresets(records))
				return nil
			})
		},
	}
}

func presetsShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				record, err := store.GetPreset(cmd.Context(), args[0])
				if err != nil {
					return presetNotFound(args[0], err)
				}

				out := cmd.OutOrStdout()
				if format != "" {
					f, err := preset.ParseFormat(format)
					if err != nil {
						return common.NewUserError(err.Error(), err)
					}
					return preset.Encode(out, record.Document, f)
				}

				fmt.Fprintln(out, cli.RenderConfiguration(record.Name, record.Document.ToConfiguration()))
				if record.Document.Description != "" {
					fmt.Fprintln(out, cli.SubtleStyle.Render(record.Document.Description))
				}
				fmt.Fprintf(out, "ID %s, used %d times\n", record.ID, record.UseCount)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "", "print the raw document as json or yaml")

	return cmd
}

func presetsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			out := cmd.OutOrStdout()

			if !yes {
				reader := cli.NewNonBlockingReader(cmd.InOrStdin())
				ok, err := cli.Confirm(cmd.Context(), reader, out, fmt.Sprintf("Delete preset %q?", name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("Cancelled"))
					return nil
				}
			}

			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				if err := store.DeletePreset(cmd.Context(), name); err != nil {
					return presetNotFound(name, err)
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted preset %q", name)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}

func presetsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <file>",
		Short: "Write a saved preset to a JSON or YAML file",
		Long:  `Export a preset. The format follows the file extension: .yaml or .yml for YAML, JSON otherwise.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				record, err := store.GetPreset(cmd.Context(), args[0])
				if err != nil {
					return presetNotFound(args[0], err)
				}
				if err := preset.WriteFile(args[1], record.Document); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %q to %s", record.Name, args[1])))
				return nil
			})
		},
	}
}

func presetsImportCmd() *cobra.Command {
	var (
		name  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a preset from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := preset.ReadFile(args[0])
			if err != nil {
				return common.NewUserError("invalid preset file "+args[0], err)
			}
			if n := strings.TrimSpace(name); n != "" {
				doc.Name = n
			}

			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				ctx := cmd.Context()
				if !force {
					_, err := store.GetPreset(ctx, doc.Name)
					if err == nil {
						return common.NewUserError(
							fmt.Sprintf("preset %q already exists; use --force to replace it", doc.Name),
							common.ErrDuplicateEntry)
					}
					if !errors.Is(err, common.ErrNotFound) {
						return err
					}
				}

				record, err := store.SavePreset(ctx, doc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported preset %q", record.Name)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "store under a different name")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing preset with the same name")

	return cmd
}

func presetsBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Copy the preset database to a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *storage.SQLiteStorage) error {
				if err := store.Backup(cmd.Context(), args[0]); err != nil {
					if errors.Is(err, storage.ErrBackupExists) {
						return common.NewUserError(args[0]+" already exists", err)
					}
					return err
				}
				if info, err := os.Stat(args[0]); err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Backed up presets to %s (%d bytes)", args[0], info.Size())))
				}
				return nil
			})
		},
	}
}
