package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Transformer coerces a decoded payload value into the shape the model needs
type Transformer interface {
	Transform(value any) (any, error)
}

// Func adapts a function into a Transformer
type Func func(value any) (any, error)

func (f Func) Transform(value any) (any, error) { return f(value) }

// TransformCreator creates a transformer from its options
type TransformCreator func(config map[string]any) (Transformer, error)

// Registry holds the available transformers
type Registry struct {
	mu           sync.RWMutex
	transformers map[string]TransformCreator
}

// NewRegistry creates a registry with the built-in transformers
func NewRegistry() *Registry {
	r := &Registry{
		transformers: make(map[string]TransformCreator),
	}

	r.Register("string", stateless(&StringTransform{}))
	r.Register("int", stateless(&IntTransform{}))
	r.Register("float", stateless(&FloatTransform{}))
	r.Register("bool", stateless(&BoolTransform{}))
	r.Register("date", dateTransformCreator)
	r.Register("unix", unixTransformCreator)
	r.Register("duration", stateless(&DurationTransform{}))
	r.Register("split", splitTransformCreator)
	r.Register("join", joinTransformCreator)
	r.Register("trim", stateless(&TrimTransform{}))

	return r
}

// Register adds or replaces a transformer type
func (r *Registry) Register(name string, creator TransformCreator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformers[name] = creator
}

// Create builds a transformer by name
func (r *Registry) Create(transformType string, config map[string]any) (Transformer, error) {
	r.mu.RLock()
	creator, ok := r.transformers[transformType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown transform type: %s", transformType)
	}
	return creator(config)
}

// Must is Create that panics on unknown types. Meant for package-level vars.
func (r *Registry) Must(transformType string, config map[string]any) Transformer {
	t, err := r.Create(transformType, config)
	if err != nil {
		panic(err)
	}
	return t
}

func stateless(t Transformer) TransformCreator {
	return func(map[string]any) (Transformer, error) { return t, nil }
}

// StringTransform converts values to strings
type StringTransform struct{}

func (t *StringTransform) Transform(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		// JSON numbers decode as float64; keep integral ids free of exponents
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}

// IntTransform converts values to integers
type IntTransform struct{}

func (t *IntTransform) Transform(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(v), ",", ""))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

// FloatTransform converts values to floats
type FloatTransform struct{}

func (t *FloatTransform) Transform(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return 0.0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0.0, fmt.Errorf("cannot convert %T to float", value)
	}
}

// BoolTransform converts values to booleans
type BoolTransform struct{}

func (t *BoolTransform) Transform(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

// DateTransform reformats dates
type DateTransform struct {
	InputFormat  string
	OutputFormat string
}

func dateTransformCreator(config map[string]any) (Transformer, error) {
	t := &DateTransform{
		InputFormat:  "RFC3339",
		OutputFormat: "RFC3339",
	}
	if inputFmt, ok := config["input_format"].(string); ok {
		t.InputFormat = inputFmt
	}
	if outputFmt, ok := config["output_format"].(string); ok {
		t.OutputFormat = outputFmt
	}
	return t, nil
}

func (t *DateTransform) Transform(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	tm, err := toTime(value, t.InputFormat)
	if err != nil {
		return nil, err
	}
	return formatTime(tm, t.OutputFormat), nil
}

// UnixTransform turns a date into Unix seconds, the unit the host model uses
type UnixTransform struct {
	InputFormat string
}

func unixTransformCreator(config map[string]any) (Transformer, error) {
	t := &UnixTransform{InputFormat: "RFC3339"}
	if inputFmt, ok := config["input_format"].(string); ok {
		t.InputFormat = inputFmt
	}
	return t, nil
}

func (t *UnixTransform) Transform(value any) (any, error) {
	if value == nil {
		return int64(0), nil
	}
	tm, err := toTime(value, t.InputFormat)
	if err != nil {
		return nil, err
	}
	return tm.Unix(), nil
}

func toTime(value any, format string) (time.Time, error) {
	switch v := value.(type) {
	case string:
		return parseTime(v, format)
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	case time.Time:
		return v, nil
	default:
		return time.Time{}, fmt.Errorf("cannot parse date from %T", value)
	}
}

func parseTime(value string, format string) (time.Time, error) {
	switch format {
	case "RFC3339":
		return time.Parse(time.RFC3339, value)
	case "RFC3339Nano":
		return time.Parse(time.RFC3339Nano, value)
	case "DateTime":
		return time.ParseInLocation(time.DateTime, value, time.UTC)
	case "Date":
		return time.ParseInLocation(time.DateOnly, value, time.UTC)
	default:
		return time.ParseInLocation(format, value, time.UTC)
	}
}

func formatTime(tm time.Time, format string) string {
	switch format {
	case "RFC3339":
		return tm.Format(time.RFC3339)
	case "RFC3339Nano":
		return tm.Format(time.RFC3339Nano)
	case "DateTime":
		return tm.Format(time.DateTime)
	case "Date":
		return tm.Format(time.DateOnly)
	case "Unix":
		return strconv.FormatInt(tm.Unix(), 10)
	case "UnixMilli":
		return strconv.FormatInt(tm.UnixMilli(), 10)
	default:
		return tm.Format(format)
	}
}

// DurationTransform turns "1:02:03", "PT1H2M3S" or a number of seconds into whole seconds
type DurationTransform struct{}

var isoDuration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

func (t *DurationTransform) Transform(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		return parseDuration(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to duration", value)
	}
}

func parseDuration(s string) (int, error) {
	if m := isoDuration.FindStringSubmatch(s); m != nil && s != "PT" {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		sec, _ := strconv.ParseFloat(m[3], 64)
		return h*3600 + mins*60 + int(sec), nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration: %q", s)
		}
		total = total*60 + n
	}
	return total, nil
}

// SplitTransform splits a string into a list
type SplitTransform struct {
	Delimiter string
}

func splitTransformCreator(config map[string]any) (Transformer, error) {
	t := &SplitTransform{Delimiter: ","}
	if delim, ok := config["delimiter"].(string); ok {
		t.Delimiter = delim
	}
	return t, nil
}

func (t *SplitTransform) Transform(value any) (any, error) {
	str, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("split transform requires string input, got %T", value)
	}
	return strings.Split(str, t.Delimiter), nil
}

// JoinTransform joins a list into a string
type JoinTransform struct {
	Delimiter string
}

func joinTransformCreator(config map[string]any) (Transformer, error) {
	t := &JoinTransform{Delimiter: ","}
	if delim, ok := config["delimiter"].(string); ok {
		t.Delimiter = delim
	}
	return t, nil
}

func (t *JoinTransform) Transform(value any) (any, error) {
	arr, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("join transform requires array input, got %T", value)
	}
	strs := make([]string, len(arr))
	for i, v := range arr {
		strs[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(strs, t.Delimiter), nil
}

// TrimTransform trims whitespace from strings
type TrimTransform struct{}

func (t *TrimTransform) Transform(value any) (any, error) {
	str, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("trim transform requires string input, got %T", value)
	}
	return strings.TrimSpace(str), nil
}

// ChainTransform applies transforms in sequence
type ChainTransform struct {
	transforms []Transformer
}

// NewChainTransform creates a transform that applies multiple transforms in order
func NewChainTransform(transforms ...Transformer) *ChainTransform {
	return &ChainTransform{transforms: transforms}
}

func (t *ChainTransform) Transform(value any) (any, error) {
	result := value
	for _, transform := range t.transforms {
		var err error
		result, err = transform.Transform(result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// DefaultRegistry is the shared registry
var DefaultRegistry = NewRegistry()
