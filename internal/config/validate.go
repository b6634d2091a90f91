package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/terragen/internal/logger"
)

// ErrInvalidConfig marks a config that fails schema or semantic checks.
var ErrInvalidConfig = errors.New("invalid config")

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

const schemaURL = "terragen/config.schema.json"

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// ValidateDocument checks a raw YAML config document against the embedded
// JSON schema. Unknown keys and wrong types are rejected here, before the
// document is merged over the defaults.
func ValidateDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	// Round trip through JSON so the validator sees JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}

	s, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate reports every semantic problem in the config at once.
func (c *Config) Validate() error {
	err := c.Generation().Validate()
	switch c.Output.Preview {
	case "", "png", "bmp":
	default:
		err = multierr.Append(err, fmt.Errorf("%w: preview format %q", ErrInvalidConfig, c.Output.Preview))
	}
	if (c.Output.Snapshot || c.Output.TileFiles || c.Output.Preview != "") && c.Output.Dir == "" {
		err = multierr.Append(err, fmt.Errorf("%w: output dir is required", ErrInvalidConfig))
	}
	if _, e := logger.ParseLevel(c.Logging.Level); e != nil {
		err = multierr.Append(err, fmt.Errorf("%w: %v", ErrInvalidConfig, e))
	}
	switch logger.Format(c.Logging.Format) {
	case "", logger.FormatConsole, logger.FormatJSON:
	default:
		err = multierr.Append(err, fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Logging.Format))
	}
	return err
}
