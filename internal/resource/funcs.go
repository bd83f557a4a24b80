package resource

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ErrNotApplied reports evaluation of a reference whose target resource has
// not reached applied status. The scheduler's ordering prevents this; seeing
// it at runtime indicates a scheduling bug, not a user error.
var ErrNotApplied = errors.New("referenced resource not yet applied")

// functions is the closed set of built-in expression functions. All are
// pure and total except for the documented failure modes (bad encoding,
// index out of range, missing key).
var functions = map[string]func(args []cty.Value) (cty.Value, error){
	"base64decode": funcBase64Decode,
	"base64encode": funcBase64Encode,
	"element":      funcElement,
	"lookup":       funcLookup,
	"format":       funcFormat,
}

func funcBase64Decode(args []cty.Value) (cty.Value, error) {
	if len(args) != 1 {
		return cty.NilVal, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	s, err := argString(args[0])
	if err != nil {
		return cty.NilVal, err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return cty.NilVal, fmt.Errorf("malformed base64 value: %w", err)
	}
	return cty.StringVal(string(decoded)), nil
}

func funcBase64Encode(args []cty.Value) (cty.Value, error) {
	if len(args) != 1 {
		return cty.NilVal, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	s, err := argString(args[0])
	if err != nil {
		return cty.NilVal, err
	}
	return cty.StringVal(base64.StdEncoding.EncodeToString([]byte(s))), nil
}

func funcElement(args []cty.Value) (cty.Value, error) {
	if len(args) != 2 {
		return cty.NilVal, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	list := args[0]
	if !list.CanIterateElements() {
		return cty.NilVal, fmt.Errorf("first argument is not a list")
	}
	idx, err := argInt(args[1])
	if err != nil {
		return cty.NilVal, err
	}
	n := list.LengthInt()
	if idx < 0 || idx >= n {
		return cty.NilVal, fmt.Errorf("index %d out of range for list of length %d", idx, n)
	}
	it := list.ElementIterator()
	for i := 0; it.Next(); i++ {
		_, v := it.Element()
		if i == idx {
			return v, nil
		}
	}
	return cty.NilVal, fmt.Errorf("index %d out of range for list of length %d", idx, n)
}

func funcLookup(args []cty.Value) (cty.Value, error) {
	if len(args) != 2 {
		return cty.NilVal, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	obj := args[0]
	key, err := argString(args[1])
	if err != nil {
		return cty.NilVal, err
	}
	ty := obj.Type()
	switch {
	case ty.IsObjectType():
		if !ty.HasAttribute(key) {
			return cty.NilVal, fmt.Errorf("no key %q", key)
		}
		return obj.GetAttr(key), nil
	case ty.IsMapType():
		keyVal := cty.StringVal(key)
		if !obj.HasIndex(keyVal).True() {
			return cty.NilVal, fmt.Errorf("no key %q", key)
		}
		return obj.Index(keyVal), nil
	default:
		return cty.NilVal, fmt.Errorf("first argument is not a map")
	}
}

func funcFormat(args []cty.Value) (cty.Value, error) {
	if len(args) < 1 {
		return cty.NilVal, fmt.Errorf("expected at least 1 argument")
	}
	format, err := argString(args[0])
	if err != nil {
		return cty.NilVal, err
	}
	rest := make([]any, len(args)-1)
	for i, a := range args[1:] {
		s, err := stringify(a)
		if err != nil {
			return cty.NilVal, err
		}
		rest[i] = s
	}
	return cty.StringVal(fmt.Sprintf(format, rest...)), nil
}

// stringify renders a value for template interpolation and format verbs.
// Only primitive values have a string rendering.
func stringify(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("cannot interpolate a null value")
	}
	converted, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot interpolate %s value", v.Type().FriendlyName())
	}
	return converted.AsString(), nil
}

func argString(v cty.Value) (string, error) {
	if v.IsNull() || v.Type() != cty.String {
		converted, err := convert.Convert(v, cty.String)
		if err != nil || converted.IsNull() {
			return "", fmt.Errorf("expected a string argument")
		}
		return converted.AsString(), nil
	}
	return v.AsString(), nil
}

func argInt(v cty.Value) (int, error) {
	converted, err := convert.Convert(v, cty.Number)
	if err != nil || converted.IsNull() {
		return 0, fmt.Errorf("expected a number argument")
	}
	var i int
	if err := ctyInt(converted, &i); err != nil {
		return 0, fmt.Errorf("expected an integer argument")
	}
	return i, nil
}

func ctyInt(v cty.Value, target *int) error {
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return fmt.Errorf("not an integer")
	}
	i64, _ := bf.Int64()
	*target = int(i64)
	return nil
}

func sortStrings(s []string) { sort.Strings(s) }
