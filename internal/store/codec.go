package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/registers/internal/core"
)

// codec converts between external record values and driver values for one
// dialect.
type codec interface {
	encode(spec core.FieldSpec, v any) (any, error)
	decode(spec core.FieldSpec, v any) (any, error)
}

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// pgCodec maps lists to text[] and timestamps to timestamptz.
type pgCodec struct{}

func (pgCodec) encode(spec core.FieldSpec, v any) (any, error) {
	switch spec.Type {
	case core.FieldInt:
		return asInt(v)
	case core.FieldTimestamp:
		return asTime(v)
	case core.FieldList:
		return asList(v)
	default:
		return asString(v), nil
	}
}

func (pgCodec) decode(spec core.FieldSpec, v any) (any, error) {
	switch spec.Type {
	case core.FieldInt:
		n, err := asInt(v)
		return int(n), err
	case core.FieldTimestamp:
		return asTime(v)
	case core.FieldList:
		return asList(v)
	default:
		return asString(v), nil
	}
}

// sqliteCodec maps lists to JSON text and timestamps to UTC text.
type sqliteCodec struct{}

func (sqliteCodec) encode(spec core.FieldSpec, v any) (any, error) {
	switch spec.Type {
	case core.FieldInt:
		return asInt(v)
	case core.FieldTimestamp:
		t, err := asTime(v)
		if err != nil || t.IsZero() {
			return "", err
		}
		return t.UTC().Format(sqliteTimeLayout), nil
	case core.FieldList:
		list, err := asList(v)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return asString(v), nil
	}
}

func (sqliteCodec) decode(spec core.FieldSpec, v any) (any, error) {
	switch spec.Type {
	case core.FieldInt:
		n, err := asInt(v)
		return int(n), err
	case core.FieldTimestamp:
		return asTime(v)
	case core.FieldList:
		s := strings.TrimSpace(asString(v))
		if s == "" {
			return []string{}, nil
		}
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		if list == nil {
			list = []string{}
		}
		return list, nil
	default:
		return asString(v), nil
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func asInt(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported integer type %T", v)
	}
}

func asTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x, nil
	case string:
		if x == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return time.Time{}, fmt.Errorf("not a timestamp: %q", x)
		}
		return t, nil
	case []byte:
		return asTime(string(x))
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func asList(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, x...), nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("unsupported list item type %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported list type %T", v)
	}
}
