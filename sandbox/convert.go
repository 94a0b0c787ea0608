// Go <-> Starlark value conversion for context injection and the hive.

package sandbox

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

// ToStarlark converts a Go value into its Starlark representation.
// Starlark values pass through unchanged.
func ToStarlark(v any) (starlark.Value, error) {
	switch x := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return x, nil
	case bool:
		return starlark.Bool(x), nil
	case int:
		return starlark.MakeInt(x), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case float64:
		return starlark.Float(x), nil
	case string:
		return starlark.String(x), nil
	case []string:
		elems := make([]starlark.Value, len(x))
		for i, s := range x {
			elems[i] = starlark.String(s)
		}
		return starlark.NewList(elems), nil
	case []any:
		elems := make([]starlark.Value, len(x))
		for i, item := range x {
			converted, err := ToStarlark(item)
			if err != nil {
				return nil, err
			}
			elems[i] = converted
		}
		return starlark.NewList(elems), nil
	case map[string]string:
		dict := starlark.NewDict(len(x))
		for _, k := range sortedKeys(x) {
			if err := dict.SetKey(starlark.String(k), starlark.String(x[k])); err != nil {
				return nil, err
			}
		}
		return dict, nil
	case map[string]any:
		dict := starlark.NewDict(len(x))
		for _, k := range sortedKeys(x) {
			converted, err := ToStarlark(x[k])
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), converted); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// FromStarlark converts a Starlark value into a plain Go value. Scalars,
// lists, and dicts map to their Go counterparts; anything else (functions,
// custom types) is stored as-is and round-trips through ToStarlark.
func FromStarlark(v starlark.Value) any {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(x)
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i
		}
		return x.String()
	case starlark.Float:
		return float64(x)
	case starlark.String:
		return string(x)
	case *starlark.List:
		result := make([]any, x.Len())
		for i := 0; i < x.Len(); i++ {
			result[i] = FromStarlark(x.Index(i))
		}
		return result
	case starlark.Tuple:
		result := make([]any, len(x))
		for i, item := range x {
			result[i] = FromStarlark(item)
		}
		return result
	case *starlark.Dict:
		result := make(map[string]any, x.Len())
		for _, item := range x.Items() {
			result[FormatValue(item[0])] = FromStarlark(item[1])
		}
		return result
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
