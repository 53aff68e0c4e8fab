package pipeline

import (
	"go.uber.org/zap"

	"github.com/aerogeophys/magqc/pkg/logger"
)

// Context carries run-scoped state through the steps of one pipeline
// execution: the structured logger, the merged top-level parameters, and a
// value store filters use to accumulate summary tables across steps.
type Context struct {
	Logger *zap.Logger
	Params map[string]interface{}

	values map[string]interface{}
}

// NewContext creates a run context with the given top-level parameters.
func NewContext(params map[string]interface{}, log *zap.Logger) *Context {
	if log == nil {
		log = logger.Get()
	}
	merged := make(map[string]interface{}, len(params))
	for k, v := range params {
		merged[k] = v
	}
	return &Context{
		Logger: log,
		Params: merged,
		values: make(map[string]interface{}),
	}
}

// Value returns a cross-step value previously stored with SetValue.
func (c *Context) Value(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// SetValue stores a cross-step value, e.g. a summary accumulator.
func (c *Context) SetValue(key string, v interface{}) {
	c.values[key] = v
}

// OutPath returns the output directory supplied alongside the steps,
// defaulting to the current directory.
func (c *Context) OutPath() string {
	if v, ok := c.Params["out_path"].(string); ok && v != "" {
		return v
	}
	return "."
}
