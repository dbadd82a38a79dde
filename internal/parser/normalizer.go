package parser

import (
	"jsonweblog/internal/model"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fastjson"
)

type Normalizer interface {
	// Normalize turns one input line into a record. It fails only for blank
	// lines, invalid JSON and non-object JSON; every other line yields a record.
	Normalize(line string, lineNumber uint64) (*model.LogRecord, error)
}

type jsonNormalizer struct {
	parsers   fastjson.ParserPool
	flattener *Flattener
	now       func() time.Time
}

func NewNormalizer(flattener *Flattener, now func() time.Time) Normalizer {
	if flattener == nil {
		flattener = NewFlattener(DefaultMaxDepth)
	}
	if now == nil {
		now = time.Now
	}
	return &jsonNormalizer{
		flattener: flattener,
		now:       now,
	}
}

func (n *jsonNormalizer) Normalize(line string, lineNumber uint64) (*model.LogRecord, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, &RejectError{Reason: ReasonEmptyLine, Line: lineNumber}
	}

	if !utf8.ValidString(line) {
		return nil, &RejectError{Reason: ReasonInvalidJSON, Line: lineNumber, Err: errInvalidUTF8}
	}
	// Parse accepts NaN, Inf and malformed numbers; Validate does not.
	if err := fastjson.Validate(line); err != nil {
		return nil, &RejectError{Reason: ReasonInvalidJSON, Line: lineNumber, Err: err}
	}

	p := n.parsers.Get()
	defer n.parsers.Put(p)

	v, err := p.Parse(line)
	if err != nil {
		return nil, &RejectError{Reason: ReasonInvalidJSON, Line: lineNumber, Err: err}
	}
	obj, err := v.Object()
	if err != nil {
		return nil, &RejectError{Reason: ReasonNotAnObject, Line: lineNumber}
	}

	keys, values := collectFields(obj)

	record := &model.LogRecord{
		Sequence:  lineNumber,
		Timestamp: n.resolveTimestamp(values, lineNumber),
		Level:     model.LevelInfo,
		Logger:    defaultLogger,
	}
	if level, ok := firstString(values, levelAliases); ok {
		record.Level = model.ParseLevel(level)
	}
	if logger, ok := firstString(values, loggerAliases); ok {
		record.Logger = logger
	}
	if message, ok := firstString(values, messageAliases); ok {
		record.Message = message
	}
	if module, ok := firstString(values, moduleAliases); ok {
		record.Module = &module
	}
	if function, ok := firstString(values, functionAliases); ok {
		record.Function = &function
	}

	raw := model.NewRawFields(len(keys))
	for _, key := range keys {
		raw.Set(key, values[key].MarshalTo(nil))
	}
	record.RawFields = raw
	record.DynamicFields = n.flattener.flattenFields(keys, values)

	return record, nil
}

// resolveTimestamp uses the first timestamp alias present in the object. A
// value that cannot be parsed falls back to the ingestion time.
func (n *jsonNormalizer) resolveTimestamp(values map[string]*fastjson.Value, lineNumber uint64) time.Time {
	for _, key := range timestampAliases {
		v, ok := values[key]
		if !ok {
			continue
		}
		ts, err := parseTimestampValue(v)
		if err != nil {
			log.Debug().Err(err).Uint64("line", lineNumber).Str("field", key).Msg("Unparseable timestamp, using ingestion time")
			break
		}
		return ts
	}
	return n.now().UTC()
}

// collectFields returns the object's keys in first-seen order. A repeated key
// keeps its first position and its last value.
func collectFields(obj *fastjson.Object) ([]string, map[string]*fastjson.Value) {
	keys := make([]string, 0, obj.Len())
	values := make(map[string]*fastjson.Value, obj.Len())
	obj.Visit(func(key []byte, v *fastjson.Value) {
		k := string(key)
		if _, seen := values[k]; !seen {
			keys = append(keys, k)
		}
		values[k] = v
	})
	return keys, values
}

// firstString returns the first alias holding a JSON string.
func firstString(values map[string]*fastjson.Value, aliases []string) (string, bool) {
	for _, key := range aliases {
		v, ok := values[key]
		if !ok || v.Type() != fastjson.TypeString {
			continue
		}
		return string(v.GetStringBytes()), true
	}
	return "", false
}
