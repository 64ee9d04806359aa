// Package config implements meld's structured-document configuration
// model: a source plugin, zero or more module plugins, and an optional
// process-wide parallelism cap, with typed access to plugin options.
package config

import (
	"encoding/json"
	"runtime"

	"github.com/Framework-R-D/meld/internal/errs"
)

// Config is an opaque bag of plugin-supplied options, decoded on demand via
// Get[T] rather than up front.
type Config struct {
	raw map[string]any
}

// New wraps an already-decoded options map.
func New(raw map[string]any) Config {
	if raw == nil {
		raw = map[string]any{}
	}
	return Config{raw: raw}
}

// Get decodes the value under key into T via a JSON marshal/unmarshal
// round-trip. Returns a *errs.ConfigError if key is absent or the value
// cannot be coerced to T.
func Get[T any](c Config, plugin, key string) (T, error) {
	var zero T
	v, ok := c.raw[key]
	if !ok {
		return zero, errs.NewConfigError(plugin, key, "missing required option")
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return zero, errs.NewConfigError(plugin, key, "value is not JSON-representable: "+err.Error())
	}
	var out T
	if err := json.Unmarshal(buf, &out); err != nil {
		return zero, errs.NewConfigError(plugin, key, "cannot decode as requested type: "+err.Error())
	}
	return out, nil
}

// GetOr is Get with a fallback value instead of an error when key is
// absent; a type-coercion failure on a present key is still an error.
func GetOr[T any](c Config, plugin, key string, fallback T) (T, error) {
	if _, ok := c.raw[key]; !ok {
		return fallback, nil
	}
	return Get[T](c, plugin, key)
}

// SourceSpec names the source plugin and its configuration.
type SourceSpec struct {
	Plugin string `json:"plugin"`
	Config Config `json:"config"`
}

// ModuleSpec names a module plugin instance, the label it registers under,
// and its configuration.
type ModuleSpec struct {
	Plugin      string `json:"plugin"`
	ModuleLabel string `json:"module_label"`
	Config      Config `json:"config"`
}

// Document is the top-level configuration shape recognized at the external
// interface: a source, zero or more modules, and an optional parallelism
// cap.
type Document struct {
	Source                SourceSpec   `json:"source"`
	Modules               []ModuleSpec `json:"modules"`
	MaxAllowedParallelism int          `json:"max_allowed_parallelism"`
}

// ResolvedParallelism returns the document's MaxAllowedParallelism, or
// runtime.NumCPU() when unset (<= 0), per the "default = hardware
// concurrency" rule.
func (d Document) ResolvedParallelism() int {
	if d.MaxAllowedParallelism <= 0 {
		return runtime.NumCPU()
	}
	return d.MaxAllowedParallelism
}

// UnmarshalJSON lets Config decode directly from a raw JSON object, so
// SourceSpec/ModuleSpec/Document round-trip through encoding/json without a
// custom Document decoder.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.raw = raw
	return nil
}

// MarshalJSON renders Config back to its underlying JSON object.
func (c Config) MarshalJSON() ([]byte, error) {
	if c.raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.raw)
}

// Decode parses a JSON document into a Document.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errs.NewConfigError("document", "", "cannot decode configuration document: "+err.Error())
	}
	return doc, nil
}
