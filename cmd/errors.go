package cmd

import (
	"errors"

	"github.com/assetbind/assetbind/internal/generator"
	"github.com/assetbind/assetbind/internal/manifest"
	"github.com/assetbind/assetbind/internal/resolver"
	"github.com/assetbind/assetbind/pkg/exitcode"
)

// configError marks failures to load or validate the configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	var (
		cfgErr    *configError
		parseErr  *manifest.ParseError
		schemaErr *manifest.SchemaError
		readErr   *manifest.ReadError
		fsErr     *resolver.FilesystemError
		emitErr   *generator.EmissionError
		staleErr  *generator.StaleError
	)

	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &cfgErr):
		return exitcode.ConfigError
	case errors.As(err, &parseErr), errors.As(err, &schemaErr):
		return exitcode.ManifestError
	case errors.As(err, &readErr), errors.As(err, &fsErr):
		return exitcode.FileSystemError
	case errors.As(err, &emitErr):
		return exitcode.EmissionError
	case errors.As(err, &staleErr):
		return exitcode.StaleOutput
	default:
		return exitcode.GeneralError
	}
}
