package generator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/assetbind/assetbind/internal/config"
	"github.com/assetbind/assetbind/internal/manifest"
	"github.com/assetbind/assetbind/internal/resolver"
)

// Options contains optional flags for the code generation process.
type Options struct {
	// Check renders the bindings and compares them with the existing output
	// instead of writing. A mismatch is reported as *StaleError.
	Check bool
}

// Result summarizes one generation run.
type Result struct {
	RunID    string
	Output   string
	Entities int
	Configs  int
	Images   int
	// Changed reports whether the rendered output differs from what was on
	// disk before the run.
	Changed bool
}

// Generate runs the manifest → resolver → emitter pipeline against fs and
// writes the bindings to cfg.Gen.Output. Nothing is written unless every
// stage succeeded, so a failed run leaves the previous output untouched.
//
// Parameters:
//   - ctx: Cancels the run before the output is written.
//   - fs: The project filesystem; every configured path is relative to it.
//   - cfg: The validated configuration.
//   - opts: Additional generation options.
//
// Returns:
//   - *Result: What was generated.
//   - error: A manifest, filesystem or emission error.
func Generate(ctx context.Context, fs billy.Filesystem, cfg *config.Config, opts Options) (*Result, error) {
	res := &Result{
		RunID:  uuid.NewString(),
		Output: clean(cfg.Gen.Output),
	}
	logger := log.With().Str("run_id", res.RunID).Logger()

	manifestPath := clean(cfg.Manifest)
	assetRoot := clean(cfg.Assets.Root)
	fontPath := clean(cfg.Assets.Font)

	logger.Info().Str("manifest", manifestPath).Str("assets", assetRoot).Msg("generating bindings")

	// 1. Load manifest
	entities, err := manifest.LoadFile(fs, manifestPath)
	if err != nil {
		return nil, err
	}
	res.Entities = len(entities)
	logger.Debug().Strs("ids", manifest.IDs(entities)).Msg("loaded manifest")

	if _, err := fs.Stat(assetRoot); errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("path", assetRoot).Msg("asset root does not exist; no entity will have assets")
	}

	// 2. Resolve assets
	table, err := resolver.Resolve(ctx, fs, entities, resolver.Options{
		Root:          assetRoot,
		ConfigFile:    cfg.Assets.ConfigFile,
		ImagePatterns: cfg.Assets.ImagePatterns,
	})
	if err != nil {
		return nil, err
	}
	res.Configs, res.Images = table.Counts()

	// 3. The font is embedded unconditionally, so it has to exist.
	if err := checkFile(fs, fontPath); err != nil {
		return nil, err
	}

	// 4. Render
	emitOpts := EmitOptions{
		Package:   cfg.Gen.Package,
		OutputDir: path.Dir(res.Output),
		FontPath:  fontPath,
	}
	if cfg.ShouldEmbedManifest() {
		emitOpts.ManifestPath = manifestPath
	}
	src, err := Emit(table, emitOpts)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. Compare and write
	existing, err := util.ReadFile(fs, res.Output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &resolver.FilesystemError{Op: "read", Path: res.Output, Err: err}
	}
	res.Changed = err != nil || !bytes.Equal(existing, src)

	if opts.Check {
		if res.Changed {
			return res, &StaleError{Path: res.Output}
		}
		logger.Info().Str("output", res.Output).Msg("bindings are up to date")
		return res, nil
	}

	if err := WriteFile(fs, res.Output, src); err != nil {
		return nil, err
	}

	logger.Info().
		Str("output", res.Output).
		Int("entities", res.Entities).
		Int("configs", res.Configs).
		Int("images", res.Images).
		Bool("changed", res.Changed).
		Msg("wrote bindings")

	return res, nil
}

func checkFile(fs billy.Filesystem, p string) error {
	info, err := fs.Stat(p)
	if err != nil {
		return &resolver.FilesystemError{Op: "stat", Path: p, Err: err}
	}
	if info.IsDir() {
		return &resolver.FilesystemError{Op: "stat", Path: p, Err: errors.New("is a directory")}
	}
	return nil
}
