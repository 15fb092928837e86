package crosconfig

import (
	"errors"
	"fmt"
	"strings"
)

// GetTouchFilename builds a filename from the template stored in
// props[templateProp]. Every '$' is removed from the template first, so
// "${MODEL}" and "{MODEL}" are equivalent. Placeholders are then replaced
// by the values in props:
//
//	{name}      value of property "name"
//	{0[name]}   same, indexed form
//	{[name]}    same, indexed form
//	{{ and }}   literal braces
//
// nodePath is only used to describe failures. A placeholder naming a
// property absent from props yields a *MissingKeyError.
func GetTouchFilename(nodePath string, props *PropertyMap, templateProp string) (string, error) {
	v, ok := props.Get(templateProp)
	if !ok {
		return "", &MissingKeyError{NodePath: nodePath, Keys: props.Keys(), Key: templateProp}
	}
	raw, ok := v.Str()
	if !ok {
		return "", fmt.Errorf("%w: node '%s': %q is %s", ErrNotString, nodePath, templateProp, v.Kind())
	}

	out, err := expandTemplate(strings.ReplaceAll(raw, "$", ""), func(key string) (string, bool) {
		val, ok := props.Get(key)
		if !ok {
			return "", false
		}
		return val.String(), true
	})
	if err != nil {
		var mk *MissingKeyError
		if errors.As(err, &mk) {
			mk.NodePath = nodePath
			mk.Template = raw
			mk.Keys = props.Keys()
			return "", mk
		}
		return "", fmt.Errorf("node '%s': template '%s': %w", nodePath, raw, err)
	}
	return out, nil
}

// expandTemplate substitutes placeholders in tmpl using lookup. A key
// lookup cannot satisfy returns a *MissingKeyError with only Key set.
func expandTemplate(tmpl string, lookup func(string) (string, bool)) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated '{' at offset %d", ErrBadTemplate, i)
			}
			field := tmpl[i+1 : i+1+end]
			key, err := fieldKey(field)
			if err != nil {
				return "", err
			}
			val, ok := lookup(key)
			if !ok {
				return "", &MissingKeyError{Key: key}
			}
			b.WriteString(val)
			i += end + 1

		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrBadTemplate, i)

		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// fieldKey extracts the property name from a placeholder body.
func fieldKey(field string) (string, error) {
	if strings.ContainsAny(field, "!:{") {
		return "", fmt.Errorf("%w: conversions and format specs are not supported in {%s}", ErrBadTemplate, field)
	}

	if open := strings.IndexByte(field, '['); open >= 0 {
		arg, rest := field[:open], field[open:]
		if arg != "" && arg != "0" {
			return "", fmt.Errorf("%w: only {0[key]} indexing is supported, got {%s}", ErrBadTemplate, field)
		}
		if !strings.HasSuffix(rest, "]") || strings.Count(rest, "[") != 1 || len(rest) < 3 {
			return "", fmt.Errorf("%w: bad index in {%s}", ErrBadTemplate, field)
		}
		return rest[1 : len(rest)-1], nil
	}

	if field == "" || isDigits(field) {
		return "", fmt.Errorf("%w: positional placeholder {%s}", ErrBadTemplate, field)
	}
	if strings.ContainsAny(field, ".]") {
		return "", fmt.Errorf("%w: attribute access in {%s}", ErrBadTemplate, field)
	}
	return field, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
