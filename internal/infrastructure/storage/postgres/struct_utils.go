package postgres

import (
	"reflect"
	"sync"
)

// column is a db-tagged field reached through its index path, so fields promoted
// from embedded structs (entity.BaseEntity, entity.Tracked) resolve in one step.
type column struct {
	name  string
	index []int
}

var columnCache sync.Map // reflect.Type -> []column

// Columns returns the db column names of T in declaration order, embedded structs
// inlined where they appear.
//
//	postgres.Columns[catalog.Product]() // ["id", "enterprise_id", "category_id", "name", ...]
func Columns[T any]() []string {
	cols := columnsOf(reflect.TypeFor[T]())
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// ColumnValues maps the db columns of a struct (or pointer to one) to its field
// values. Anything else yields nil.
func ColumnValues(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	cols := columnsOf(rv.Type())
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		out[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return out
}

func columnsOf(t reflect.Type) []column {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}
	var cols []column
	if t.Kind() == reflect.Struct {
		cols = collectColumns(t, nil)
	}
	columnCache.Store(t, cols)
	return cols
}

func collectColumns(t reflect.Type, prefix []int) []column {
	var cols []column
	for i := range t.NumField() {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		// Embedded value structs contribute their own columns; embedded pointers
		// could be nil and are not mapped.
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			cols = append(cols, collectColumns(f.Type, index)...)
			continue
		}

		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, column{name: tag, index: index})
	}
	return cols
}
