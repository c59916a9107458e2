package config

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	_ "embed"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://github.com/walteh/emmetls/config.schema.json"

// FileNames are the config files looked up in a workspace root, in order.
var FileNames = []string{".emmetls.yaml", ".emmetls.yml", ".emmetls.json", ".emmetls.toml", ".emmetls.hcl"}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, errors.Errorf("adding schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Find returns the first config file present in dir.
func Find(fs afero.Fs, dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if ok, _ := afero.Exists(fs, path); ok {
			return path, true
		}
	}
	return "", false
}

// Load reads the config file at path over the defaults. The decoder is
// chosen by extension; unknown keys are errors in every format.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			return nil, errors.Errorf("parsing JSON: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.Errorf("parsing TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Errorf("parsing TOML: unknown key %q", undecoded[0].String())
		}
	case ".hcl":
		file, diags := hclparse.NewParser().ParseHCL(data, path)
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing HCL: %s", diags.Error())
		}
		if diags := gohcl.DecodeBody(file.Body, &hcl.EvalContext{}, cfg); diags.HasErrors() {
			return nil, errors.Errorf("decoding HCL: %s", diags.Error())
		}
	default:
		return nil, errors.Errorf("unsupported config format %q", ext)
	}

	if err := check(cfg); err != nil {
		return nil, errors.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// check validates cfg against the schema and then semantically.
func check(cfg *Config) error {
	schema, err := compileSchema()
	if err != nil {
		return errors.Errorf("compiling config schema: %w", err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return errors.Errorf("encoding config: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return errors.Errorf("decoding config: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return errors.Errorf("schema: %w", err)
	}
	return cfg.Validate()
}
