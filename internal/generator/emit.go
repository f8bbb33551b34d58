package generator

import (
	"fmt"
	"go/format"

	"github.com/assetbind/assetbind/internal/resolver"
	"github.com/assetbind/assetbind/internal/templates"
)

// EmitOptions describes the generated file.
type EmitOptions struct {
	// Package is the package clause of the generated file.
	Package string
	// OutputDir is the directory the generated file will live in. Embed
	// paths are made relative to it.
	OutputDir string
	// ManifestPath, when set, is embedded as ManifestJSON.
	ManifestPath string
	// FontPath is embedded as FontData regardless of the manifest.
	FontPath string
}

type configBinding struct {
	ID   string
	Var  string
	Path string
}

type imageBinding struct {
	Name string
	Var  string
	Path string
}

type imageGroup struct {
	ID     string
	Images []imageBinding
}

type bindings struct {
	Package      string
	ManifestPath string
	FontPath     string
	IDs          []string
	Configs      []configBinding
	Groups       []imageGroup
}

type imageKey struct {
	id   string
	name string
}

// Emit renders the lookup bindings for table as gofmt-formatted Go source.
//
// GetConfig and GetImage in the output are total: any key not bound by the
// table returns false. Declarations follow table order: configs in manifest
// order, then images grouped per entity in listing order.
//
// Returns:
//   - []byte: The generated source.
//   - error: An *EmissionError if two entries bind the same key or a path
//     cannot be embedded.
func Emit(table resolver.Table, opts EmitOptions) ([]byte, error) {
	data, err := buildBindings(table, opts)
	if err != nil {
		return nil, err
	}

	raw, err := renderTemplate(templates.Bindings, data)
	if err != nil {
		return nil, err
	}

	src, err := format.Source(raw)
	if err != nil {
		return nil, &EmissionError{Reason: fmt.Sprintf("generated source is not valid Go: %v", err)}
	}
	return src, nil
}

func buildBindings(table resolver.Table, opts EmitOptions) (*bindings, error) {
	if opts.Package == "" {
		return nil, &EmissionError{Reason: "no package name"}
	}
	if opts.FontPath == "" {
		return nil, &EmissionError{Reason: "no font path"}
	}
	outputDir := clean(opts.OutputDir)

	data := &bindings{Package: opts.Package}

	fontPath, err := embedPath(outputDir, clean(opts.FontPath))
	if err != nil {
		return nil, &EmissionError{Key: "font", Reason: err.Error()}
	}
	data.FontPath = fontPath

	if opts.ManifestPath != "" {
		manifestPath, err := embedPath(outputDir, clean(opts.ManifestPath))
		if err != nil {
			return nil, &EmissionError{Key: "manifest", Reason: err.Error()}
		}
		data.ManifestPath = manifestPath
	}

	seenIDs := make(map[string]bool)
	seenConfigs := make(map[string]bool)
	seenImages := make(map[imageKey]bool)
	groupIndex := make(map[string]int)

	for _, entry := range table.Entries {
		id := entry.Entity.ID
		if !seenIDs[id] {
			seenIDs[id] = true
			data.IDs = append(data.IDs, id)
		}

		if entry.HasConfig() {
			key := fmt.Sprintf("config %q", id)
			if seenConfigs[id] {
				return nil, &EmissionError{Key: key, Reason: "bound more than once (duplicate identifier in manifest)"}
			}
			seenConfigs[id] = true

			p, err := embedPath(outputDir, entry.ConfigPath)
			if err != nil {
				return nil, &EmissionError{Key: key, Reason: err.Error()}
			}
			data.Configs = append(data.Configs, configBinding{
				ID:   id,
				Var:  fmt.Sprintf("assetbindConfig%d", len(data.Configs)),
				Path: p,
			})
		}

		for _, img := range entry.Images {
			key := fmt.Sprintf("image (%q, %q)", id, img.Name)
			ik := imageKey{id: id, name: img.Name}
			if seenImages[ik] {
				return nil, &EmissionError{Key: key, Reason: "bound more than once (duplicate identifier in manifest)"}
			}
			seenImages[ik] = true

			p, err := embedPath(outputDir, img.Path)
			if err != nil {
				return nil, &EmissionError{Key: key, Reason: err.Error()}
			}

			idx, ok := groupIndex[id]
			if !ok {
				idx = len(data.Groups)
				groupIndex[id] = idx
				data.Groups = append(data.Groups, imageGroup{ID: id})
			}
			data.Groups[idx].Images = append(data.Groups[idx].Images, imageBinding{
				Name: img.Name,
				Var:  fmt.Sprintf("assetbindImage%d", len(seenImages)-1),
				Path: p,
			})
		}
	}

	return data, nil
}
