package fsutil

// File and directory permission constants.
const (
	FileModeDefault = 0o644 // -rw-r--r--: lockfile and downloaded archives
	DirModeDefault  = 0o755 // drwxr-xr-x: destination directory
)
