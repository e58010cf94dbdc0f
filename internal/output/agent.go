package output

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ListField names the struct field that agent options apply to when the
// printed value is a result struct rather than a bare slice.
const ListField = "Blocks"

// ApplyAgentOptions applies --result-limit/--result-sort-by/--result-desc to
// a slice, or to the Blocks field of a result struct. The input is never
// modified.
func ApplyAgentOptions(ctx context.Context, data interface{}) interface{} {
	limit := LimitFromContext(ctx)
	sortBy, desc := SortFromContext(ctx)
	if data == nil || (limit == 0 && sortBy == "") {
		return data
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return data
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return applyToSlice(v, limit, sortBy, desc).Interface()
	case reflect.Struct:
		field := v.FieldByName(ListField)
		if !field.IsValid() || field.Kind() != reflect.Slice {
			return data
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		out.FieldByName(ListField).Set(applyToSlice(field, limit, sortBy, desc))
		return out.Interface()
	}
	return data
}

// applyToSlice copies, sorts, and limits a slice value.
func applyToSlice(v reflect.Value, limit int, sortBy string, desc bool) reflect.Value {
	n := v.Len()
	sliceType := v.Type()
	if v.Kind() == reflect.Array {
		sliceType = reflect.SliceOf(v.Type().Elem())
	}
	out := reflect.MakeSlice(sliceType, n, n)
	reflect.Copy(out, v)

	if sortBy != "" {
		path := strings.Split(sortBy, ".")
		sort.SliceStable(out.Interface(), func(i, j int) bool {
			a, aok := lookup(out.Index(i), path)
			b, bok := lookup(out.Index(j), path)
			switch {
			case !aok:
				return false
			case !bok:
				return true
			}
			c := compareValues(a, b)
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if limit > 0 && limit < n {
		return out.Slice(0, limit)
	}
	return out
}

// lookup resolves a dotted path of json field names or map keys.
func lookup(v reflect.Value, path []string) (interface{}, bool) {
	for _, name := range path {
		v = deref(v)
		for v.Kind() == reflect.Interface && !v.IsNil() {
			v = deref(v.Elem())
		}
		switch v.Kind() {
		case reflect.Map:
			next, ok := mapValue(v, name)
			if !ok {
				return nil, false
			}
			v = next
		case reflect.Struct:
			next, ok := structField(v, name)
			if !ok {
				return nil, false
			}
			v = next
		default:
			return nil, false
		}
	}
	v = deref(v)
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return nil, false
	}
	return v.Interface(), true
}

func mapValue(v reflect.Value, name string) (reflect.Value, bool) {
	if v.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, false
	}
	want := normalizeName(name)
	for _, key := range v.MapKeys() {
		if normalizeName(key.String()) == want {
			return v.MapIndex(key), true
		}
	}
	return reflect.Value{}, false
}

func structField(v reflect.Value, name string) (reflect.Value, bool) {
	want := normalizeName(name)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		label, _ := jsonName(f)
		if normalizeName(label) == want || normalizeName(f.Name) == want {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
}

func compareValues(a, b interface{}) int {
	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(va, vb)
		}
	case int:
		if vb, ok := b.(int); ok {
			return cmp.Compare(va, vb)
		}
	case uint64:
		if vb, ok := b.(uint64); ok {
			return cmp.Compare(va, vb)
		}
	case float64:
		if vb, ok := b.(float64); ok {
			return cmp.Compare(va, vb)
		}
	case bool:
		if vb, ok := b.(bool); ok && va != vb {
			if va {
				return 1
			}
			return -1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
