// Package resolver reconciles manifest entities against the asset tree.
//
// Every entity gets exactly one Entry in the resulting Table. A missing
// entity directory or a missing config file is a normal outcome and simply
// leaves the entry empty; any other I/O failure aborts with FilesystemError.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog/log"

	"github.com/assetbind/assetbind/internal/manifest"
)

const (
	DefaultConfigFile   = "config.yml"
	DefaultImagePattern = "*.{jpg,png,gif}"
)

// Options controls where and how entity assets are looked up.
type Options struct {
	// Root is the directory holding one subdirectory per entity.
	Root string
	// ConfigFile is the name of the optional per-entity config file.
	ConfigFile string
	// ImagePatterns are doublestar patterns matched against bare file names.
	ImagePatterns []string
}

func (o Options) withDefaults() Options {
	if o.ConfigFile == "" {
		o.ConfigFile = DefaultConfigFile
	}
	if len(o.ImagePatterns) == 0 {
		o.ImagePatterns = []string{DefaultImagePattern}
	}
	return o
}

// Image is one embeddable image belonging to an entity.
type Image struct {
	// Name is the file name, used as the lookup key.
	Name string
	// Path is the slash-separated path of the file on the filesystem.
	Path string
}

// Entry is the resolved asset set of one entity.
type Entry struct {
	Entity     manifest.Entity
	ConfigPath string
	Images     []Image
}

// HasConfig reports whether a config file was found for the entity.
func (e Entry) HasConfig() bool {
	return e.ConfigPath != ""
}

// Table is the ordered result of resolution, one entry per manifest entity.
type Table struct {
	Entries []Entry
}

// Counts returns the number of config files and images in the table.
func (t Table) Counts() (configs, images int) {
	for _, e := range t.Entries {
		if e.HasConfig() {
			configs++
		}
		images += len(e.Images)
	}
	return configs, images
}

// Resolve searches fs for the assets of each entity, in manifest order.
// Images are ordered by file name so that repeated runs over the same tree
// produce the same table regardless of the platform's listing order.
func Resolve(ctx context.Context, fs billy.Filesystem, entities []manifest.Entity, opts Options) (Table, error) {
	opts = opts.withDefaults()

	table := Table{Entries: make([]Entry, 0, len(entities))}
	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			return Table{}, err
		}

		entry, err := resolveEntity(fs, entity, opts)
		if err != nil {
			return Table{}, err
		}

		log.Debug().
			Str("id", entity.ID).
			Bool("config", entry.HasConfig()).
			Int("images", len(entry.Images)).
			Msg("resolved entity")

		table.Entries = append(table.Entries, entry)
	}
	return table, nil
}

func resolveEntity(fs billy.Filesystem, entity manifest.Entity, opts Options) (Entry, error) {
	entry := Entry{Entity: entity}
	if !isDirName(entity.ID) {
		log.Warn().Str("id", entity.ID).Msg("identifier is not a single directory name, ignoring")
		return entry, nil
	}
	dir := path.Join(opts.Root, entity.ID)

	info, err := fs.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return entry, nil
	}
	if err != nil {
		return Entry{}, &FilesystemError{Op: "stat", Path: dir, Err: err}
	}
	if !info.IsDir() {
		log.Warn().Str("id", entity.ID).Str("path", dir).Msg("entity path is not a directory, ignoring")
		return entry, nil
	}

	configPath := path.Join(dir, opts.ConfigFile)
	found, err := isRegularFile(fs, configPath)
	if err != nil {
		return Entry{}, err
	}
	if found {
		entry.ConfigPath = configPath
	}

	images, err := listImages(fs, dir, opts.ImagePatterns)
	if err != nil {
		return Entry{}, err
	}
	entry.Images = images

	return entry, nil
}

// isRegularFile reports whether p exists as a regular file. Symlinks and
// directories count as absent because //go:embed cannot include them.
func isRegularFile(fs billy.Filesystem, p string) (bool, error) {
	info, err := fs.Lstat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &FilesystemError{Op: "stat", Path: p, Err: err}
	}
	return info.Mode().IsRegular(), nil
}

func listImages(fs billy.Filesystem, dir string, patterns []string) ([]Image, error) {
	children, err := fs.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &FilesystemError{Op: "readdir", Path: dir, Err: err}
	}

	var images []Image
	for _, child := range children {
		if !child.Mode().IsRegular() {
			continue
		}
		ok, err := matchesAny(patterns, child.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			images = append(images, Image{Name: child.Name(), Path: path.Join(dir, child.Name())})
		}
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Name < images[j].Name
	})
	return images, nil
}

func matchesAny(patterns []string, name string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("invalid image pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// isDirName reports whether id names exactly one directory below the root.
func isDirName(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
