package parser

import (
	"jsonweblog/internal/model"
	"strconv"

	"github.com/valyala/fastjson"
)

const (
	// DefaultMaxDepth bounds how deep nested objects and arrays are expanded.
	DefaultMaxDepth = 32
	// MaxArrayElements is how many leading array elements get their own paths.
	MaxArrayElements = 10
)

// Flattener expands a JSON value tree into a path-keyed index. Objects and
// arrays are recorded whole under their own path and then expanded: object
// members under "path.key", the first MaxArrayElements array elements under
// "path[i]". Containers at MaxDepth are recorded but not expanded.
//
// When two branches produce the same path the one visited last wins. Visiting
// follows the key order of the input, so the result is deterministic.
type Flattener struct {
	maxDepth int
}

func NewFlattener(maxDepth int) *Flattener {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Flattener{maxDepth: maxDepth}
}

// Flatten builds the field index of a record's raw fields.
func (f *Flattener) Flatten(fields model.RawFields) map[string]model.FieldValue {
	keys := fields.Keys()
	parsed := make([]string, 0, len(keys))
	values := make(map[string]*fastjson.Value, len(keys))
	for _, key := range keys {
		raw, _ := fields.Get(key)
		// fastjson values live only as long as their parser, so each raw value
		// gets a fresh one.
		v, err := fastjson.ParseBytes(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, key)
		values[key] = v
	}
	return f.flattenFields(parsed, values)
}

func (f *Flattener) flattenFields(keys []string, values map[string]*fastjson.Value) map[string]model.FieldValue {
	out := make(map[string]model.FieldValue, len(keys))
	for _, key := range keys {
		f.flattenValue(key, values[key], 1, out)
	}
	return out
}

func (f *Flattener) flattenValue(path string, v *fastjson.Value, depth int, out map[string]model.FieldValue) {
	switch v.Type() {
	case fastjson.TypeNull:
		out[path] = model.NullValue()
	case fastjson.TypeTrue:
		out[path] = model.BooleanValue(true)
	case fastjson.TypeFalse:
		out[path] = model.BooleanValue(false)
	case fastjson.TypeNumber:
		n, err := v.Float64()
		if err != nil {
			return
		}
		out[path] = model.NumberValue(n)
	case fastjson.TypeString:
		out[path] = model.StringValue(string(v.GetStringBytes()))
	case fastjson.TypeArray:
		items, _ := v.Array()
		out[path] = model.ArrayValue(v.MarshalTo(nil), len(items))
		if depth >= f.maxDepth {
			return
		}
		for i, item := range items {
			if i >= MaxArrayElements {
				break
			}
			f.flattenValue(path+"["+strconv.Itoa(i)+"]", item, depth+1, out)
		}
	case fastjson.TypeObject:
		obj, _ := v.Object()
		out[path] = model.ObjectValue(v.MarshalTo(nil), obj.Len())
		if depth >= f.maxDepth {
			return
		}
		obj.Visit(func(key []byte, child *fastjson.Value) {
			f.flattenValue(path+"."+string(key), child, depth+1, out)
		})
	}
}
