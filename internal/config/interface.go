package config

import "context"

// Loader is the interface for a format-specific plan loader. Load reads
// plan sources from the given path (a file or a directory searched
// recursively), translates them into the format-agnostic model, and
// validates the result.
type Loader interface {
	Load(ctx context.Context, path string) (*Plan, error)
}
