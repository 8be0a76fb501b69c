package modules

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// lookup walks nested JSON objects along path.
func lookup(m map[string]any, path ...string) (any, bool) {
	var cur any = m
	for _, p := range path {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, exists := mm[p]
		if !exists {
			return nil, false
		}
		cur = v
	}
	return cur, cur != nil
}

func textAt(m map[string]any, path ...string) Text {
	v, ok := lookup(m, path...)
	if !ok {
		return Text{}
	}
	s, ok := v.(string)
	if !ok {
		return Text{}
	}
	return KnownText(strings.TrimSpace(s))
}

func decimalAt(m map[string]any, path ...string) decimal.NullDecimal {
	v, ok := lookup(m, path...)
	if !ok {
		return decimal.NullDecimal{}
	}
	d, ok := toDecimal(v)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// toDecimal accepts JSON numbers and numeric strings.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// flagAt reads a yes/no audit answer. DexTools uses "yes"/"no" strings;
// booleans are accepted too.
func flagAt(m map[string]any, key string) Flag {
	v, ok := lookup(m, key)
	if !ok {
		return FlagUnknown
	}
	switch x := v.(type) {
	case bool:
		if x {
			return FlagYes
		}
		return FlagNo
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "yes", "true":
			return FlagYes
		case "no", "false":
			return FlagNo
		}
	}
	return FlagUnknown
}

// taxAt reads a tax as a plain number or as an object with max/min bounds.
func taxAt(m map[string]any, key string) decimal.NullDecimal {
	v, ok := lookup(m, key)
	if !ok {
		return decimal.NullDecimal{}
	}
	if obj, ok := v.(map[string]any); ok {
		if d := decimalAt(obj, "max"); d.Valid {
			return d
		}
		return decimalAt(obj, "min")
	}
	d, ok := toDecimal(v)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
