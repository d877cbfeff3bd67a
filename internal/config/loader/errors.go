package loader

import "errors"

// ErrUnsupportedFormat is returned by ForPath for an unknown file extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")
