// Package config reads the modeljson configuration file and maps it to codec options.
//
// A configuration is a YAML or JSON document (JSON may carry comments):
//
//	type: modeljson.config.ocm.software/v1
//	save:
//	  indent: 2
//	  dangling: record
//	load:
//	  allowComments: true
//	  schemas:
//	  - library.yaml
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/bindings/go/modeljson"
	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

const (
	Type = "modeljson.config.ocm.software/v1"

	FlagName       = "config"
	EnvironmentKey = "MODELJSON_CONFIG"
	DirectoryName  = "modeljson"
	FileName       = "config"
	HomeFileName   = ".modeljson"
)

// Config is the configuration document.
type Config struct {
	Type string `json:"type"`
	Save Save   `json:"save,omitempty"`
	Load Load   `json:"load,omitempty"`

	// path is the file the configuration was read from.
	path string
}

// Save mirrors the serializable part of modeljson.SaveOptions.
type Save struct {
	Indent                             int                      `json:"indent,omitempty"`
	Encoding                           string                   `json:"encoding,omitempty"`
	SaveUnset                          bool                     `json:"saveUnset,omitempty"`
	SaveDerived                        bool                     `json:"saveDerived,omitempty"`
	SaveTransient                      bool                     `json:"saveTransient,omitempty"`
	Dangling                           modeljson.DanglingPolicy `json:"dangling,omitempty"`
	DisplayDynamicType                 bool                     `json:"displayDynamicType,omitempty"`
	ForcePrefixOnEmptyNamespace        bool                     `json:"forcePrefixOnEmptyNamespace,omitempty"`
	SchemaLocation                     bool                     `json:"schemaLocation,omitempty"`
	SchemaLocations                    map[string]string        `json:"schemaLocations,omitempty"`
	ForceDefaultReferenceSerialization bool                     `json:"forceDefaultReferenceSerialization,omitempty"`
	Canonical                          bool                     `json:"canonical,omitempty"`
}

// Load mirrors the serializable part of modeljson.LoadOptions.
type Load struct {
	Encoding         string `json:"encoding,omitempty"`
	AllowComments    bool   `json:"allowComments,omitempty"`
	ValidateEnvelope bool   `json:"validateEnvelope,omitempty"`
	// Schemas are schema definition files registered before loading.
	// Relative paths are resolved against the configuration file.
	Schemas []string `json:"schemas,omitempty"`
	// LoadSchemaLocations loads unknown namespaces from the schemaLocation header.
	LoadSchemaLocations bool `json:"loadSchemaLocations,omitempty"`
}

// Default is the configuration used when no file is found.
func Default() *Config {
	return &Config{Type: Type}
}

// Decode parses a configuration from YAML or JSON with comments.
func Decode(data []byte) (*Config, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		data = jsonc.ToJSON(data)
	}
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if cfg.Type != Type {
		return nil, fmt.Errorf("unsupported configuration type %q, expected %q", cfg.Type, Type)
	}
	return cfg, nil
}

// Read decodes the configuration file at path.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Path returns the file the configuration was read from, if any.
func (c *Config) Path() string {
	return c.path
}

// Paths lists existing configuration files in lookup order:
//
//  1. $MODELJSON_CONFIG
//  2. $XDG_CONFIG_HOME/modeljson/config
//  3. $HOME/.modeljson
func Paths() []string {
	var candidates []string
	if env := os.Getenv(EnvironmentKey); env != "" {
		candidates = append(candidates, env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, DirectoryName, FileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, HomeFileName))
	}

	var paths []string
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			paths = append(paths, path)
		}
	}
	return paths
}

// Lookup reads explicit if set and otherwise the first file found by Paths.
// Without any file the default configuration is returned.
func Lookup(explicit string) (*Config, error) {
	if explicit != "" {
		return Read(explicit)
	}
	for _, path := range Paths() {
		cfg, err := Read(path)
		if err != nil {
			slog.Warn("configuration was skipped due to an error loading it",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		slog.Debug("configuration was loaded", slog.String("path", path))
		return cfg, nil
	}
	return Default(), nil
}

// RegisterConfigFlag adds the persistent --config flag to cmd.
func RegisterConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String(FlagName, "", `configuration file to use instead of the lookup of
$MODELJSON_CONFIG, $XDG_CONFIG_HOME/modeljson/config and $HOME/.modeljson`)
}

// ForCommand resolves the configuration for cmd honoring --config.
func ForCommand(cmd *cobra.Command) (*Config, error) {
	explicit, err := cmd.Flags().GetString(FlagName)
	if err != nil {
		return nil, err
	}
	return Lookup(explicit)
}

// SaveOptions maps the save section to codec options.
func (c *Config) SaveOptions() *modeljson.SaveOptions {
	s := c.Save
	opts := modeljson.DefaultSaveOptions()
	opts.Indent = s.Indent
	if s.Encoding != "" {
		opts.Encoding = s.Encoding
	}
	opts.SaveUnset = s.SaveUnset
	opts.SaveDerived = s.SaveDerived
	opts.SaveTransient = s.SaveTransient
	opts.Dangling = s.Dangling
	opts.DisplayDynamicType = s.DisplayDynamicType
	opts.ForcePrefixOnEmptyNamespace = s.ForcePrefixOnEmptyNamespace
	opts.SchemaLocation = s.SchemaLocation
	opts.SchemaLocations = s.SchemaLocations
	opts.ForceDefaultReferenceSerialization = s.ForceDefaultReferenceSerialization
	opts.Canonical = s.Canonical
	return opts
}

// LoadOptions maps the load section to codec options using registry.
func (c *Config) LoadOptions(registry modeljson.TypeRegistry) *modeljson.LoadOptions {
	opts := &modeljson.LoadOptions{
		Registry:         registry,
		Encoding:         c.Load.Encoding,
		AllowComments:    c.Load.AllowComments,
		ValidateEnvelope: c.Load.ValidateEnvelope,
	}
	if c.Load.LoadSchemaLocations {
		opts.SchemaLoader = modeljson.FileSchemaLoader{}
	}
	return opts
}

// Registry creates a registry with the meta namespace and the namespaces
// of the configured schemas followed by extra schema files.
func (c *Config) Registry(extra ...string) (*model.Registry, error) {
	registry := model.NewRegistry(model.WithMetaNamespace())
	var errs []error
	for _, path := range append(c.schemaPaths(), extra...) {
		if err := registerSchema(registry, path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return registry, nil
}

func (c *Config) schemaPaths() []string {
	paths := make([]string, 0, len(c.Load.Schemas))
	for _, p := range c.Load.Schemas {
		if !filepath.IsAbs(p) && c.path != "" {
			p = filepath.Join(filepath.Dir(c.path), p)
		}
		paths = append(paths, p)
	}
	return paths
}

func registerSchema(registry *model.Registry, path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open schema: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if _, err := model.DecodeSchema(f, registry); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
