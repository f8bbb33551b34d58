package generator

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/assetbind/assetbind/internal/templates"
)

// renderTemplate executes the named template into memory. Nothing is written
// until the caller has the complete output.
func renderTemplate(tmplName string, data interface{}) ([]byte, error) {
	t, err := templates.Parse(tmplName, GetCommonFuncMap())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", tmplName, err)
	}
	return buf.Bytes(), nil
}

// embedPath converts p into the form a //go:embed directive in outputDir
// needs: slash separated and relative to outputDir.
func embedPath(outputDir, p string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(outputDir), filepath.FromSlash(p))
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside the output directory %s; //go:embed cannot reach parent directories", p, outputDir)
	}
	if err := checkEmbeddable(rel); err != nil {
		return "", err
	}
	return rel, nil
}

// checkEmbeddable applies the file path rules the go command enforces on
// embedded files, plus the glob metacharacters //go:embed patterns reserve.
func checkEmbeddable(rel string) error {
	if rel == "." || !utf8.ValidString(rel) {
		return fmt.Errorf("%q is not an embeddable file path", rel)
	}
	for _, elem := range strings.Split(rel, "/") {
		if elem == "" || elem == "." || elem == ".." {
			return fmt.Errorf("%q has an empty or relative path element", rel)
		}
		if strings.HasSuffix(elem, ".") {
			return fmt.Errorf("%q has a path element ending in a dot", rel)
		}
		for _, r := range elem {
			if !embedRuneOK(r) {
				return fmt.Errorf("%q contains %q, which //go:embed does not accept", rel, r)
			}
		}
	}
	return nil
}

func embedRuneOK(r rune) bool {
	if r < utf8.RuneSelf {
		const allowed = "!#$%&()+,-.=@^_{}~ "
		if '0' <= r && r <= '9' || 'A' <= r && r <= 'Z' || 'a' <= r && r <= 'z' {
			return true
		}
		return strings.ContainsRune(allowed, r)
	}
	return unicode.IsLetter(r)
}

// clean normalizes a configured path to the slash form used throughout the
// pipeline.
func clean(p string) string {
	return path.Clean(filepath.ToSlash(p))
}
