// Starlark wrapper exposing the hive store inside the sandbox.

package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/richinex/daedalus/storage"
)

// hiveValue adapts a storage.Hive to a Starlark object with set / get /
// get_all / clear methods. All synchronization lives in the store; this
// wrapper only converts values at the boundary.
type hiveValue struct {
	store *storage.Hive
}

func (h *hiveValue) String() string        { return h.store.String() }
func (h *hiveValue) Type() string          { return "hive" }
func (h *hiveValue) Freeze()               {}
func (h *hiveValue) Truth() starlark.Bool  { return h.store.Len() > 0 }
func (h *hiveValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: hive") }

// AttrNames lists the hive methods.
func (h *hiveValue) AttrNames() []string {
	return []string{"clear", "get", "get_all", "set"}
}

// Attr returns the named hive method.
func (h *hiveValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "set":
		return starlark.NewBuiltin("set", h.set), nil
	case "get":
		return starlark.NewBuiltin("get", h.get), nil
	case "get_all":
		return starlark.NewBuiltin("get_all", h.getAll), nil
	case "clear":
		return starlark.NewBuiltin("clear", h.clear), nil
	default:
		return nil, nil
	}
}

func (h *hiveValue) set(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &key, &value); err != nil {
		return nil, err
	}
	h.store.Set(key, FromStarlark(value))
	return starlark.None, nil
}

func (h *hiveValue) get(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	var def starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "key", &key, "default?", &def); err != nil {
		return nil, err
	}
	return ToStarlark(h.store.Get(key, FromStarlark(def)))
}

func (h *hiveValue) getAll(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return ToStarlark(h.store.GetAll())
}

func (h *hiveValue) clear(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	h.store.Clear()
	return starlark.None, nil
}

// Verify hiveValue implements HasAttrs
var _ starlark.HasAttrs = (*hiveValue)(nil)
