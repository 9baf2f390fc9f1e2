package client

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// Params are query parameters. Nil values, nil pointers and blank strings are
// dropped when encoded.
type Params map[string]any

// Values encodes the non-empty parameters. It returns nil when nothing is left.
func (p Params) Values() url.Values {
	if len(p) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := url.Values{}
	for _, k := range keys {
		v, ok := deref(p[k])
		if !ok {
			continue
		}
		if s, isString := v.(string); isString {
			if strings.TrimSpace(s) == "" {
				continue
			}
			out.Set(k, s)
			continue
		}
		out.Set(k, fmt.Sprint(v))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func deref(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	return rv.Interface(), true
}
