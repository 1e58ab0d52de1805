// Package config holds the application configuration and the free-form
// Options bag used by parsers.
//
// Configuration is plain JSON decoded by the cmd layer. Components never
// read the environment themselves; cmd resolves flag -> env -> default and
// passes values down.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"
)

// App is the top-level configuration for the darem binaries.
type App struct {
	Storage Storage `json:"storage"`
	Import  Import  `json:"import"`
	Metrics Metrics `json:"metrics"`
}

// Storage selects the repository backend.
type Storage struct {
	// Kind: "sqlite" | "postgres" | "mssql".
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`

	// MaxConns bounds the connection pool. Zero means the backend default
	// (10, matching the production deployment).
	MaxConns int `json:"max_conns"`
}

// Import controls pipeline execution behavior.
type Import struct {
	// Parser options forwarded to the csv parser (comma, encoding, ...).
	Parser Options `json:"parser"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend: "datadog" | "none".
	Backend string   `json:"backend"`
	JobName string   `json:"job_name"`
	Tags    []string `json:"tags"`
}

// Load reads and decodes an App config from a JSON file.
func Load(path string) (App, error) {
	var app App

	f, err := os.Open(path)
	if err != nil {
		return app, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&app); err != nil {
		return app, fmt.Errorf("decode config %s: %w", path, err)
	}
	return app, nil
}

// Options is a free-form option bag with typed accessors.
//
// Each accessor takes a default that is returned when the key is absent or
// has an incompatible type. JSON numbers decode as float64; Int accepts
// both int and float64 for that reason.
type Options map[string]any

// Any returns the raw value for key, or nil when absent.
func (o Options) Any(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

// Bool returns a boolean option.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

// Int returns an integer option.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// String returns a string option.
func (o Options) String(key string, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

// Rune returns the first rune of a string option. Empty strings and
// non-strings fall back to def.
func (o Options) Rune(key string, def rune) rune {
	v, ok := o[key].(string)
	if !ok || v == "" {
		return def
	}
	r, _ := utf8.DecodeRuneInString(v)
	if r == utf8.RuneError {
		return def
	}
	return r
}

// StringMap returns a map[string]string option. JSON object values that
// are not strings are skipped.
func (o Options) StringMap(key string) map[string]string {
	out := map[string]string{}
	switch m := o[key].(type) {
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}
