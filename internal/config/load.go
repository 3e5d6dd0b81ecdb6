package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/engine"
)

//go:embed schema.cue
var schemaCUE string

// File is the on-disk shape of a Config. Pointer fields tell an omitted key
// from an explicit zero. Other formats that embed a configuration (such as
// harness scenarios) decode into File and Apply it.
type File struct {
	TapeSize      *int    `json:"tape_size" yaml:"tape_size"`
	PointerPolicy *string `json:"pointer_policy" yaml:"pointer_policy"`
	EOFPolicy     *string `json:"eof_policy" yaml:"eof_policy"`
	BracketPolicy *string `json:"bracket_policy" yaml:"bracket_policy"`
	MaxDepth      *int    `json:"max_depth" yaml:"max_depth"`
	MaxSteps      *int64  `json:"max_steps" yaml:"max_steps"`
	Coalesce      *bool   `json:"coalesce" yaml:"coalesce"`
}

// Load reads a configuration file. The format follows the extension:
// .yaml and .yml are YAML, .cue is CUE checked against the #Config schema.
// The result is defaults overlaid with the file's fields, validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return LoadBytes(path, data)
}

// LoadBytes parses data as if read from a file named name.
func LoadBytes(name string, data []byte) (Config, error) {
	var fc File
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		fc, err = decodeYAML(data)
	case ".cue":
		fc, err = decodeCUE(name, data)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension (want .yaml, .yml or .cue)", name)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", name, err)
	}

	c := fc.Apply(Default())
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", name, err)
	}
	return c, nil
}

func decodeYAML(data []byte) (File, error) {
	var fc File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("parse yaml: %w", err)
	}
	return fc, nil
}

func decodeCUE(name string, data []byte) (File, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return File{}, fmt.Errorf("compile schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return File{}, fmt.Errorf("parse cue: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return File{}, fmt.Errorf("schema: %w", err)
	}

	var fc File
	if err := unified.Decode(&fc); err != nil {
		return File{}, fmt.Errorf("decode cue: %w", err)
	}
	return fc, nil
}

// Apply overlays the fields set in fc onto c.
func (fc File) Apply(c Config) Config {
	if fc.TapeSize != nil {
		c.TapeSize = *fc.TapeSize
	}
	if fc.PointerPolicy != nil {
		c.PointerPolicy = engine.PointerPolicy(*fc.PointerPolicy)
	}
	if fc.EOFPolicy != nil {
		c.EOFPolicy = engine.EOFPolicy(*fc.EOFPolicy)
	}
	if fc.BracketPolicy != nil {
		c.BracketPolicy = compiler.BracketPolicy(*fc.BracketPolicy)
	}
	if fc.MaxDepth != nil {
		c.MaxDepth = *fc.MaxDepth
	}
	if fc.MaxSteps != nil {
		c.MaxSteps = *fc.MaxSteps
	}
	if fc.Coalesce != nil {
		c.Coalesce = *fc.Coalesce
	}
	return c
}
