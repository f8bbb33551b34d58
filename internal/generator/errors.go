package generator

import "fmt"

// EmissionError reports a table that cannot be rendered into valid
// bindings, most often because two entries would bind the same key.
type EmissionError struct {
	// Key is the binding key at fault, e.g. `config "drake"` or
	// `image ("drake", "1.jpg")`.
	Key    string
	Reason string
}

func (e *EmissionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("emission error: %s", e.Reason)
	}
	return fmt.Sprintf("emission error: %s: %s", e.Key, e.Reason)
}

// StaleError is returned in check mode when the file on disk does not match
// what would be generated.
type StaleError struct {
	Path string
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("%s is out of date; run assetbind generate", e.Path)
}
