// Package pipeline provides the declarative QC pipeline engine: a parsed
// step specification, a named filter registry, and an executor that threads
// a survey dataset through the steps in declared order.
package pipeline

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aerogeophys/magqc/pkg/errors"
)

// Step is one pipeline entry: a filter name plus optional keyword
// parameters. In the YAML document a step is either a bare name string or a
// single-key mapping from name to a parameter mapping.
type Step struct {
	Name string `json:"name"`
	Args Args   `json:"args,omitempty"`
}

// Spec is an ordered, immutable pipeline specification. Execution order is
// the declared order; no reordering or parallel dispatch happens.
type Spec struct {
	Steps []Step
	// Params holds every top-level key other than "steps", preserved
	// verbatim and merged into the run-time context (e.g. out_path).
	Params map[string]interface{}
}

// Parse decodes a pipeline specification document.
func Parse(data []byte) (*Spec, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "malformed pipeline document")
	}

	rawSteps, ok := doc["steps"]
	if !ok {
		return nil, errors.New(errors.ErrorTypeConfig, "pipeline document has no steps key")
	}
	list, ok := rawSteps.([]interface{})
	if !ok {
		return nil, errors.New(errors.ErrorTypeConfig, "pipeline steps must be a sequence")
	}
	delete(doc, "steps")

	spec := &Spec{Params: doc}
	for i, entry := range list {
		step, err := parseStep(entry)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig,
				"invalid pipeline step").WithDetail("index", i)
		}
		spec.Steps = append(spec.Steps, step)
	}
	return spec, nil
}

// LoadSpec reads and parses a pipeline specification file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read pipeline file")
	}
	return Parse(data)
}

func parseStep(entry interface{}) (Step, error) {
	switch v := entry.(type) {
	case string:
		return Step{Name: v}, nil
	case map[string]interface{}:
		if len(v) != 1 {
			return Step{}, errors.New(errors.ErrorTypeConfig,
				"a step mapping must hold exactly one name")
		}
		for name, raw := range v {
			args := Args{}
			switch kw := raw.(type) {
			case nil:
			case map[string]interface{}:
				args = Args(kw)
			default:
				return Step{}, errors.Newf(errors.ErrorTypeConfig,
					"parameters for step %q must be a mapping", name)
			}
			return Step{Name: name, Args: args}, nil
		}
	}
	return Step{}, errors.New(errors.ErrorTypeConfig,
		"a step must be a name or a single-key mapping")
}

// Args holds the keyword parameters declared for one step.
type Args map[string]interface{}

// Float returns a numeric parameter, accepting YAML ints, or def when absent.
func (a Args) Float(key string, def float64) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Int returns an integer parameter or def when absent.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// String returns a string parameter or def when absent.
func (a Args) String(key string, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// Bool returns a boolean parameter or def when absent.
func (a Args) Bool(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}
