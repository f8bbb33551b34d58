package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/assetbind/assetbind/internal/config"
	"github.com/assetbind/assetbind/internal/generator"
	"github.com/assetbind/assetbind/internal/resolver"
	"github.com/assetbind/assetbind/internal/templates"
)

// newInitCommand represents the init command.
func newInitCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold assetbind.yaml, an empty manifest and the asset root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing assetbind.yaml")
	return cmd
}

// runInit scaffolds the project directory for the loaded configuration.
// Existing manifests and asset directories are left alone.
//
// Returns:
//   - error: An error if assetbind.yaml already exists (without force) or a
//     file cannot be created.
func (a *app) runInit(cmd *cobra.Command, force bool) error {
	w := cmd.OutOrStdout()
	printHeader(w, fmt.Sprintf("Initializing %s", a.dir))

	configPath := config.FileName + ".yaml"
	if _, err := a.fs.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	// 1. Create assetbind.yaml
	t, err := templates.Parse(templates.ConfigFile, nil)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, a.cfg); err != nil {
		return fmt.Errorf("failed to render %s: %w", configPath, err)
	}
	if err := generator.WriteFile(a.fs, configPath, buf.Bytes()); err != nil {
		return err
	}
	printSuccess(w, "config", configPath)

	// 2. Create an empty manifest
	manifestPath := path.Clean(a.cfg.Manifest)
	switch _, err := a.fs.Stat(manifestPath); {
	case err == nil:
		printWarning(w, "manifest", manifestPath+" exists, kept")
	case errors.Is(err, os.ErrNotExist):
		if err := generator.WriteFile(a.fs, manifestPath, []byte("[]\n")); err != nil {
			return err
		}
		printSuccess(w, "manifest", manifestPath)
	default:
		return &resolver.FilesystemError{Op: "stat", Path: manifestPath, Err: err}
	}

	// 3. Create the asset root and the font directory
	for _, dir := range []string{path.Clean(a.cfg.Assets.Root), path.Dir(path.Clean(a.cfg.Assets.Font))} {
		if err := a.fs.MkdirAll(dir, 0o755); err != nil {
			return &resolver.FilesystemError{Op: "mkdir", Path: dir, Err: err}
		}
		printSuccess(w, "directory", dir)
	}

	fontPath := path.Clean(a.cfg.Assets.Font)
	if _, err := a.fs.Stat(fontPath); err != nil {
		printWarning(w, "font", fontPath+" is missing; add it before generating")
	}

	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  add entities to %s and their files under %s/<id>/\n", manifestPath, path.Clean(a.cfg.Assets.Root))
	fmt.Fprintln(w, "  assetbind generate")

	return nil
}
