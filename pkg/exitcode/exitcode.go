// Package exitcode defines the process exit codes of the assetbind CLI.
package exitcode

// Exit codes for assetbind
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ManifestError   = 3
	FileSystemError = 4
	EmissionError   = 5
	StaleOutput     = 6
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ManifestError:
		return "Manifest error"
	case FileSystemError:
		return "File system error"
	case EmissionError:
		return "Emission error"
	case StaleOutput:
		return "Generated output is out of date"
	default:
		return "Unknown error"
	}
}
