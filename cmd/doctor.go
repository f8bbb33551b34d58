package cmd

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/assetbind/assetbind/internal/generator"
	"github.com/assetbind/assetbind/internal/manifest"
	"github.com/assetbind/assetbind/internal/resolver"
)

// errDoctor is returned when at least one check failed.
var errDoctor = errors.New("doctor found problems")

// newDoctorCommand represents the doctor command.
func newDoctorCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the manifest, asset root, font and output directory are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDoctor(cmd)
		},
	}
}

// runDoctor reports on every input of the pipeline without writing anything.
// Missing optional pieces are warnings; anything that would make generate
// fail is an error.
func (a *app) runDoctor(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	failed := false

	printHeader(w, fmt.Sprintf("Checking %s", a.dir))

	if a.configUsed != "" {
		rel, err := filepath.Rel(a.dir, a.configUsed)
		if err != nil {
			rel = a.configUsed
		}
		printSuccess(w, "config", rel)
	} else {
		printWarning(w, "config", "no assetbind.yaml, using defaults")
	}

	// Manifest
	manifestPath := path.Clean(a.cfg.Manifest)
	entities, err := manifest.LoadFile(a.fs, manifestPath)
	if err != nil {
		printError(w, "manifest", err.Error())
		failed = true
	} else {
		printSuccess(w, "manifest", fmt.Sprintf("%s (%d entities)", manifestPath, len(entities)))
	}

	// Asset root
	root := path.Clean(a.cfg.Assets.Root)
	switch info, err := a.fs.Stat(root); {
	case errors.Is(err, os.ErrNotExist):
		printWarning(w, "assets", root+" does not exist; no entity will have assets")
	case err != nil:
		printError(w, "assets", err.Error())
		failed = true
	case !info.IsDir():
		printError(w, "assets", root+" is not a directory")
		failed = true
	default:
		table, err := resolver.Resolve(cmd.Context(), a.fs, entities, resolver.Options{
			Root:          root,
			ConfigFile:    a.cfg.Assets.ConfigFile,
			ImagePatterns: a.cfg.Assets.ImagePatterns,
		})
		if err != nil {
			printError(w, "assets", err.Error())
			failed = true
			break
		}
		configs, images := table.Counts()
		printSuccess(w, "assets", fmt.Sprintf("%s (%d configs, %d images)", root, configs, images))
		for _, e := range table.Entries {
			if !e.HasConfig() && len(e.Images) == 0 {
				printWarning(w, "entity", fmt.Sprintf("%q has no config or images", e.Entity.ID))
			}
		}
	}

	// Font
	font := path.Clean(a.cfg.Assets.Font)
	if info, err := a.fs.Stat(font); err != nil {
		printError(w, "font", err.Error())
		failed = true
	} else if info.IsDir() {
		printError(w, "font", font+" is a directory")
		failed = true
	} else {
		printSuccess(w, "font", font)
	}

	// Output directory
	outDir := path.Dir(path.Clean(a.cfg.Gen.Output))
	if info, err := a.fs.Stat(outDir); err == nil && !info.IsDir() {
		printError(w, "output", outDir+" is not a directory")
		failed = true
	} else {
		printSuccess(w, "output", path.Clean(a.cfg.Gen.Output))
	}

	if failed {
		return errDoctor
	}

	// Everything is in place; render in check mode to catch emission errors
	// and report whether the bindings are current.
	_, err = generator.Generate(cmd.Context(), a.fs, a.cfg, generator.Options{Check: true})
	var stale *generator.StaleError
	switch {
	case err == nil:
		printSuccess(w, "bindings", "up to date")
	case errors.As(err, &stale):
		printWarning(w, "bindings", "out of date; run assetbind generate")
	default:
		printError(w, "bindings", err.Error())
		return errDoctor
	}
	return nil
}
