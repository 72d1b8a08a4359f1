// Package config defines the format-agnostic model of a provisioning plan
// and the Loader interface implemented by format-specific loaders.
package config
