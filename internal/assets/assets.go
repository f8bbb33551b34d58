package assets

import (
	"embed"
	"io/fs"
)

//go:embed files/*
var assetsFS embed.FS

// AssetsMap holds every embedded support file keyed by its base name
// (e.g. "manifest.schema.yaml").
var AssetsMap = make(map[string][]byte)

// ManifestSchema is the name of the JSON schema, written in YAML, that every
// manifest must satisfy.
const ManifestSchema = "manifest.schema.yaml"

func init() {
	err := fs.WalkDir(assetsFS, "files", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			content, err := assetsFS.ReadFile(path)
			if err != nil {
				return err
			}
			AssetsMap[d.Name()] = content
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// Get returns the embedded file with the given base name.
func Get(name string) ([]byte, bool) {
	content, ok := AssetsMap[name]
	return content, ok
}
