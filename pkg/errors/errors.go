// Package errors defines the sentinel errors shared by the playsync packages.
// Callers classify failures with errors.Is against these values.
package errors

import "fmt"

// Sync errors.
var (
	// ErrNetwork is returned when a listing page, version page or archive cannot be fetched.
	ErrNetwork = fmt.Errorf("network error")

	// ErrAmbiguousArchive is returned when a library version does not expose exactly one archive.
	ErrAmbiguousArchive = fmt.Errorf("ambiguous archive")

	// ErrConfig is returned for operator errors such as a lock entry without an integrity value.
	ErrConfig = fmt.Errorf("configuration error")

	// ErrIntegrity is returned when downloaded bytes do not match the expected digest.
	ErrIntegrity = fmt.Errorf("integrity check failed")

	// ErrIO is returned for filesystem failures (lockfile, destination directory, archives).
	ErrIO = fmt.Errorf("i/o error")

	// ErrVersionUnresolved is returned when no release can be found for a library.
	ErrVersionUnresolved = fmt.Errorf("unable to resolve version")

	// ErrPageLimit is returned when a listing keeps paginating past the configured limit.
	ErrPageLimit = fmt.Errorf("listing page limit exceeded")

	// ErrInvalidArchive is returned when a downloaded file is not a usable archive.
	ErrInvalidArchive = fmt.Errorf("invalid archive")
)

// Config errors.
var (
	ErrEmptyConfigPath  = fmt.Errorf("config file path cannot be empty")
	ErrConfigParse      = fmt.Errorf("failed to parse config")
	ErrConfigValidation = fmt.Errorf("invalid configuration")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
