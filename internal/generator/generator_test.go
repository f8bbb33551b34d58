package generator

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetbind/assetbind/internal/config"
	"github.com/assetbind/assetbind/internal/manifest"
	"github.com/assetbind/assetbind/internal/resolver"
)

// newProject lays out a project with the default configuration: the
// manifest, the font and every given file under assets/templates.
func newProject(t *testing.T, manifestJSON string, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, config.DefaultManifest, []byte(manifestJSON), 0o644))
	require.NoError(t, util.WriteFile(fs, config.DefaultFont, []byte("font bytes"), 0o644))
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, config.DefaultAssetRoot+"/"+name, []byte(content), 0o644))
	}
	return fs
}

func readOutput(t *testing.T, fs billy.Filesystem) []byte {
	t.Helper()
	data, err := util.ReadFile(fs, config.DefaultOutput)
	require.NoError(t, err)
	return data
}

func TestGenerate_DrakeAndDoge(t *testing.T) {
	fs := newProject(t, `[{"id":"drake"},{"id":"doge"}]`, map[string]string{
		"drake/config.yml": "name: drake\n",
		"drake/1.jpg":      "\xff\xd8jpeg",
	})

	res, err := Generate(context.Background(), fs, config.Default(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "embedded.go", res.Output)
	assert.Equal(t, 2, res.Entities)
	assert.Equal(t, 1, res.Configs)
	assert.Equal(t, 1, res.Images)
	assert.True(t, res.Changed)
	assert.NotEmpty(t, res.RunID)

	b := parseBindings(t, readOutput(t, fs))
	l := lookups{t: t, b: b, fs: fs, outputDir: "."}

	cfg, ok := l.GetConfig("drake")
	assert.True(t, ok)
	assert.Equal(t, "name: drake\n", cfg)

	img, ok := l.GetImage("drake", "1.jpg")
	assert.True(t, ok)
	assert.Equal(t, []byte("\xff\xd8jpeg"), img)

	_, ok = l.GetImage("drake", "2.jpg")
	assert.False(t, ok)
	_, ok = l.GetConfig("doge")
	assert.False(t, ok)
	_, ok = l.GetImage("doge", "1.jpg")
	assert.False(t, ok)
	_, ok = l.GetConfig("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"drake", "doge"}, b.ids)
	assert.Equal(t, config.DefaultFont, b.embeds["FontData"])
	assert.Equal(t, config.DefaultManifest, b.embeds["ManifestJSON"])
}

func TestGenerate_Idempotent(t *testing.T) {
	fs := newProject(t, `[{"id":"a"},{"id":"b"}]`, map[string]string{
		"a/config.yml": "a",
		"a/2.png":      "2",
		"a/1.png":      "1",
		"b/x.gif":      "x",
	})

	_, err := Generate(context.Background(), fs, config.Default(), Options{})
	require.NoError(t, err)
	first := readOutput(t, fs)

	res, err := Generate(context.Background(), fs, config.Default(), Options{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, first, readOutput(t, fs))
}

func TestGenerate_CustomOutputDirectory(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "plugin/templates.json", []byte(`[{"id":"cat"}]`), 0o644))
	require.NoError(t, util.WriteFile(fs, "plugin/font.ttf", []byte("font"), 0o644))
	require.NoError(t, util.WriteFile(fs, "plugin/assets/cat/meow.png", []byte("meow"), 0o644))

	cfg := config.Default()
	cfg.Manifest = "plugin/templates.json"
	cfg.Assets.Root = "plugin/assets"
	cfg.Assets.Font = "plugin/font.ttf"
	cfg.Gen.Output = "plugin/embedded.go"
	cfg.Gen.Package = "plugin"
	off := false
	cfg.Gen.EmbedManifest = &off

	_, err := Generate(context.Background(), fs, cfg, Options{})
	require.NoError(t, err)

	src, err := util.ReadFile(fs, "plugin/embedded.go")
	require.NoError(t, err)

	b := parseBindings(t, src)
	assert.Equal(t, "plugin", b.pkg)
	assert.NotContains(t, b.embeds, "ManifestJSON")

	l := lookups{t: t, b: b, fs: fs, outputDir: "plugin"}
	img, ok := l.GetImage("cat", "meow.png")
	assert.True(t, ok)
	assert.Equal(t, []byte("meow"), img)
}

func TestGenerate_FailureLeavesOutputUntouched(t *testing.T) {
	const previous = "// previous bindings\npackage main\n"

	tests := []struct {
		name     string
		manifest string
		files    map[string]string
		prepare  func(t *testing.T, fs billy.Filesystem) billy.Filesystem
		check    func(t *testing.T, err error)
	}{
		{
			name:     "duplicate identifier with assets",
			manifest: `[{"id":"drake"},{"id":"drake"}]`,
			files:    map[string]string{"drake/config.yml": "c"},
			check: func(t *testing.T, err error) {
				var emitErr *EmissionError
				require.True(t, errors.As(err, &emitErr))
				assert.Equal(t, `config "drake"`, emitErr.Key)
			},
		},
		{
			name:     "malformed manifest",
			manifest: `[{"id":"drake"`,
			check: func(t *testing.T, err error) {
				var parseErr *manifest.ParseError
				assert.True(t, errors.As(err, &parseErr))
			},
		},
		{
			name:     "schema violation",
			manifest: `[{"name":"drake"}]`,
			check: func(t *testing.T, err error) {
				var schemaErr *manifest.SchemaError
				assert.True(t, errors.As(err, &schemaErr))
			},
		},
		{
			name:     "missing font",
			manifest: `[]`,
			prepare: func(t *testing.T, fs billy.Filesystem) billy.Filesystem {
				require.NoError(t, fs.Remove(config.DefaultFont))
				return fs
			},
			check: func(t *testing.T, err error) {
				var fsErr *resolver.FilesystemError
				require.True(t, errors.As(err, &fsErr))
				assert.Equal(t, "stat", fsErr.Op)
				assert.Equal(t, config.DefaultFont, fsErr.Path)
				assert.ErrorIs(t, err, os.ErrNotExist)
			},
		},
		{
			name:     "unreadable entity directory",
			manifest: `[{"id":"drake"}]`,
			files:    map[string]string{"drake/1.jpg": "j"},
			prepare: func(t *testing.T, fs billy.Filesystem) billy.Filesystem {
				return failingFS{Filesystem: fs, readDir: os.ErrPermission}
			},
			check: func(t *testing.T, err error) {
				var fsErr *resolver.FilesystemError
				require.True(t, errors.As(err, &fsErr))
				assert.ErrorIs(t, err, os.ErrPermission)
			},
		},
		{
			name:     "rename fails",
			manifest: `[{"id":"drake"}]`,
			files:    map[string]string{"drake/1.jpg": "j"},
			prepare: func(t *testing.T, fs billy.Filesystem) billy.Filesystem {
				return failingFS{Filesystem: fs, rename: os.ErrPermission}
			},
			check: func(t *testing.T, err error) {
				var fsErr *resolver.FilesystemError
				require.True(t, errors.As(err, &fsErr))
				assert.Equal(t, "rename", fsErr.Op)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newProject(t, tt.manifest, tt.files)
			require.NoError(t, util.WriteFile(base, config.DefaultOutput, []byte(previous), 0o644))

			fs := billy.Filesystem(base)
			if tt.prepare != nil {
				fs = tt.prepare(t, base)
			}

			res, err := Generate(context.Background(), fs, config.Default(), Options{})
			require.Error(t, err)
			assert.Nil(t, res)
			tt.check(t, err)

			assert.Equal(t, previous, string(readOutput(t, base)))
			assertNoTempFiles(t, base, ".")
		})
	}
}

func TestGenerate_MissingManifest(t *testing.T) {
	fs := memfs.New()

	_, err := Generate(context.Background(), fs, config.Default(), Options{})
	require.Error(t, err)

	var readErr *manifest.ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, config.DefaultManifest, readErr.Path)

	_, statErr := fs.Stat(config.DefaultOutput)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestGenerate_MissingAssetRoot(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, config.DefaultManifest, []byte(`[{"id":"drake"}]`), 0o644))
	require.NoError(t, util.WriteFile(fs, config.DefaultFont, []byte("font"), 0o644))
	// Only assets/fonts exists.
	_, err := fs.Stat(config.DefaultAssetRoot)
	require.True(t, errors.Is(err, os.ErrNotExist))

	res, err := Generate(context.Background(), fs, config.Default(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Configs)
	assert.Equal(t, 0, res.Images)
	assert.Equal(t, []string{"drake"}, parseBindings(t, readOutput(t, fs)).ids)
}

func TestGenerate_Check(t *testing.T) {
	fs := newProject(t, `[{"id":"drake"}]`, map[string]string{
		"drake/config.yml": "c",
	})

	// Nothing generated yet.
	res, err := Generate(context.Background(), fs, config.Default(), Options{Check: true})
	var staleErr *StaleError
	require.True(t, errors.As(err, &staleErr))
	assert.Equal(t, config.DefaultOutput, staleErr.Path)
	assert.True(t, res.Changed)
	_, statErr := fs.Stat(config.DefaultOutput)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "check mode must not write")

	_, err = Generate(context.Background(), fs, config.Default(), Options{})
	require.NoError(t, err)

	res, err = Generate(context.Background(), fs, config.Default(), Options{Check: true})
	require.NoError(t, err)
	assert.False(t, res.Changed)

	// A new image makes the bindings stale again.
	require.NoError(t, util.WriteFile(fs, config.DefaultAssetRoot+"/drake/1.png", []byte("p"), 0o644))
	before := readOutput(t, fs)

	_, err = Generate(context.Background(), fs, config.Default(), Options{Check: true})
	assert.True(t, errors.As(err, &staleErr))
	assert.Equal(t, before, readOutput(t, fs))
}

func TestGenerate_Cancelled(t *testing.T) {
	fs := newProject(t, `[{"id":"drake"}]`, map[string]string{
		"drake/config.yml": "c",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, fs, config.Default(), Options{})
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := fs.Stat(config.DefaultOutput)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

// failingFS injects errors into selected operations of an otherwise working
// filesystem.
type failingFS struct {
	billy.Filesystem
	readDir error
	rename  error
}

func (f failingFS) ReadDir(p string) ([]os.FileInfo, error) {
	if f.readDir != nil {
		return nil, f.readDir
	}
	return f.Filesystem.ReadDir(p)
}

func (f failingFS) Rename(from, to string) error {
	if f.rename != nil {
		return f.rename
	}
	return f.Filesystem.Rename(from, to)
}

func assertNoTempFiles(t *testing.T, fs billy.Filesystem, dir string) {
	t.Helper()
	infos, err := fs.ReadDir(dir)
	require.NoError(t, err)
	for _, info := range infos {
		assert.NotContains(t, info.Name(), ".tmp", "temporary file %s left behind", info.Name())
	}
}
