// Package pipelineconf loads pipeline configurations.
//
// A configuration is an ordered list of [unit_reference, parameters]
// pairs where parameters is an object or null:
//
//	[
//	  ["agora_results.pipes.results.do_tallies", {"ignore_invalid_votes": true}],
//	  ["agora_results.pipes.sort.sort_non_iterative", null]
//	]
//
// JSON, YAML and CUE documents are accepted. Every document is compiled
// to a CUE value and unified with the #Pipeline schema before it is
// converted to an engine.Config.
package pipelineconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/villawad/agora-results/internal/engine"
)

// Format is the syntax of a configuration document.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// Error codes.
const (
	ErrCodeNotFound    = "CONFIG_NOT_FOUND"
	ErrCodeUnsupported = "CONFIG_UNSUPPORTED"
	ErrCodeParse       = "CONFIG_PARSE"
	ErrCodeInvalid     = "CONFIG_INVALID"
)

// schema constrains the shape of a configuration. Reference syntax and
// parameter semantics are checked later by the registry and the units.
const schema = `
#Params: {...} | null
#Step: [string & !="", #Params]
#Pipeline: [...#Step]
`

// LoadError reports why a configuration could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FormatOf picks the document format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported configuration file %s (expected .json, .yaml, .yml or .cue)", path),
		}
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (engine.Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("configuration not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading configuration: %v", err)}
	}
	return Parse(data, format, path)
}

// Parse validates a configuration document. filename is only used in
// error positions.
func Parse(data []byte, format Format, filename string) (engine.Config, error) {
	src := data
	if format == FormatYAML {
		var err error
		if src, err = yamlToJSON(data); err != nil {
			return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parsing YAML: %v", err)}
		}
	} else if format != FormatJSON && format != FormatCUE {
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported format %q", format)}
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, cueError(ErrCodeParse, err)
	}

	pipeline := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Pipeline"))
	unified := pipeline.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeInvalid, err)
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return nil, cueError(ErrCodeInvalid, err)
	}
	return decode(raw)
}

// yamlToJSON re-encodes a YAML document as JSON, which is valid CUE.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// decode converts validated JSON into a Config. Numbers stay json.Number
// so integer parameters never pass through float64.
func decode(raw []byte) (engine.Config, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc [][]any
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalid, Message: err.Error()}
	}

	cfg := make(engine.Config, len(doc))
	for i, pair := range doc {
		ref, _ := pair[0].(string)
		params := engine.Params{}
		if m, ok := pair[1].(map[string]any); ok {
			for k, v := range m {
				params[k] = v
			}
		}
		cfg[i] = engine.Step{Ref: ref, Params: params}
	}
	return cfg, nil
}

func cueError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: cueerrors.Details(err, nil)}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Pos = errs[0].Position()
		le.Message = strings.TrimSpace(fmt.Sprint(errs[0]))
	}
	return le
}
