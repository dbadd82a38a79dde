package parser

import (
	"errors"
	"fmt"
	"jsonweblog/internal/util"
	"time"

	"github.com/valyala/fastjson"
)

// timestampLayouts are tried in order before falling back to RFC 3339.
// Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
}

var errUnsupportedTimestamp = errors.New("timestamp must be a string or an integer")

// ParseTimestampString parses a textual timestamp against the known layouts.
func ParseTimestampString(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return inRange(t)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse timestamp %q: %w", s, err)
	}
	return inRange(t)
}

func parseTimestampValue(v *fastjson.Value) (time.Time, error) {
	switch v.Type() {
	case fastjson.TypeString:
		return ParseTimestampString(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch timestamp: %w", err)
		}
		return inRange(util.FromEpoch(n))
	default:
		return time.Time{}, errUnsupportedTimestamp
	}
}

// inRange keeps the record encodable: a timestamp outside years 0 to 9999
// counts as unparseable.
func inRange(t time.Time) (time.Time, error) {
	t = t.UTC()
	if err := util.CheckTimeRange(t); err != nil {
		return time.Time{}, err
	}
	return t, nil
}
