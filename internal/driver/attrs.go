package driver

import (
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Attribute access over resolved desired-state objects, shared by the
// drivers. Wrong types are permanent failures: retrying a declaration does
// not fix it.

// AttrVal returns the named attribute, or false when the object does not
// carry it or it is null.
func AttrVal(obj cty.Value, name string) (cty.Value, bool) {
	if obj == cty.NilVal || !obj.Type().IsObjectType() || !obj.Type().HasAttribute(name) {
		return cty.NilVal, false
	}
	v := obj.GetAttr(name)
	if v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

// StringAttr reads a string attribute, returning "" when absent.
func StringAttr(obj cty.Value, name string) (string, error) {
	v, ok := AttrVal(obj, name)
	if !ok {
		return "", nil
	}
	conv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", Permanentf("attribute %q: %s", name, err)
	}
	return conv.AsString(), nil
}

// RequiredStringAttr reads a string attribute that must be present and
// non-empty.
func RequiredStringAttr(obj cty.Value, name string) (string, error) {
	s, err := StringAttr(obj, name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", Permanentf("attribute %q is required", name)
	}
	return s, nil
}

// IntAttr reads a whole-number attribute, returning def when absent.
func IntAttr(obj cty.Value, name string, def int) (int, error) {
	v, ok := AttrVal(obj, name)
	if !ok {
		return def, nil
	}
	conv, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, Permanentf("attribute %q: %s", name, err)
	}
	f, _ := conv.AsBigFloat().Float64()
	if f != math.Trunc(f) {
		return 0, Permanentf("attribute %q must be a whole number", name)
	}
	return int(f), nil
}

// StringListAttr reads a list-of-strings attribute, returning nil when
// absent.
func StringListAttr(obj cty.Value, name string) ([]string, error) {
	v, ok := AttrVal(obj, name)
	if !ok {
		return nil, nil
	}
	if !v.CanIterateElements() {
		return nil, Permanentf("attribute %q must be a list", name)
	}
	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		conv, err := convert.Convert(ev, cty.String)
		if err != nil {
			return nil, Permanentf("attribute %q: %s", name, err)
		}
		out = append(out, conv.AsString())
	}
	return out, nil
}

// StringMapAttr reads a map-of-strings attribute, returning nil when
// absent.
func StringMapAttr(obj cty.Value, name string) (map[string]string, error) {
	v, ok := AttrVal(obj, name)
	if !ok {
		return nil, nil
	}
	if !v.CanIterateElements() {
		return nil, Permanentf("attribute %q must be a map", name)
	}
	out := make(map[string]string)
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		conv, err := convert.Convert(ev, cty.String)
		if err != nil {
			return nil, Permanentf("attribute %q: %s", name, err)
		}
		out[k.AsString()] = conv.AsString()
	}
	return out, nil
}
