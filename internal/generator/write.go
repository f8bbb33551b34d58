package generator

import (
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/assetbind/assetbind/internal/resolver"
)

// WriteFile replaces filename with data. The content is written to a
// temporary file in the same directory and renamed into place, so readers
// see either the previous file or the complete new one. An existing file
// keeps its permissions; a new one gets 0644.
func WriteFile(fs billy.Filesystem, filename string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := fs.Stat(filename); err == nil && st.Mode().Perm() != 0 {
		mode = st.Mode().Perm()
	}

	dir := path.Dir(filename)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return &resolver.FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	// The temp file is created with the final mode; billy's chroot helpers
	// cannot chmod afterwards.
	tmpName := path.Join(dir, "."+path.Base(filename)+".tmp"+uuid.NewString())
	tmp, err := fs.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return &resolver.FilesystemError{Op: "create", Path: tmpName, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return &resolver.FilesystemError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return &resolver.FilesystemError{Op: "close", Path: tmpName, Err: err}
	}

	if err := fs.Rename(tmpName, filename); err != nil {
		fs.Remove(tmpName)
		return &resolver.FilesystemError{Op: "rename", Path: filename, Err: err}
	}
	return nil
}
