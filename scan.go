package queries

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/shipq/queries/dbstrings"
)

// RowScanner is implemented by record types that decode themselves from the
// current row. Decode calls ScanRow on a pointer to the record.
type RowScanner interface {
	ScanRow(rows Rows) error
}

var (
	scannerType  = reflect.TypeFor[sql.Scanner]()
	timeType     = reflect.TypeFor[time.Time]()
	anyMapType   = reflect.TypeFor[map[string]any]()
	structFields sync.Map // reflect.Type -> map[string][]int
)

// Decode is the default RowDecoder. Records are decoded as follows:
//
//   - types whose pointer implements RowScanner decode themselves;
//   - map[string]any receives every column by name;
//   - structs (other than time.Time and sql.Scanner implementations) map
//     each column to a field by `db` tag, then by case-insensitive field
//     name, then by the snake_case form of the field name; a column with no
//     matching field is an error and `db:"-"` excludes a field;
//   - any other type is a scalar and needs exactly one column.
func Decode[T any](rows Rows) (T, error) {
	var rec T
	if rs, ok := any(&rec).(RowScanner); ok {
		err := rs.ScanRow(rows)
		return rec, err
	}

	t := reflect.TypeFor[T]()
	switch {
	case t == anyMapType:
		m, err := scanMap(rows)
		if err != nil {
			return rec, err
		}
		reflect.ValueOf(&rec).Elem().Set(reflect.ValueOf(m))
		return rec, nil
	case isStructRecord(t):
		err := scanStruct(rows, reflect.ValueOf(&rec).Elem())
		return rec, err
	default:
		cols, err := rows.Columns()
		if err != nil {
			return rec, err
		}
		if len(cols) != 1 {
			return rec, &DecodeError{Err: fmt.Errorf("expected 1 column for %s, got %d", t, len(cols))}
		}
		if err := rows.Scan(&rec); err != nil {
			return rec, &DecodeError{Column: cols[0], Err: err}
		}
		return rec, nil
	}
}

func isStructRecord(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	return !t.Implements(scannerType) && !reflect.PointerTo(t).Implements(scannerType)
}

func scanMap(rows Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, &DecodeError{Err: err}
	}
	m := make(map[string]any, len(cols))
	for i, col := range cols {
		if b, ok := vals[i].([]byte); ok {
			vals[i] = append([]byte(nil), b...)
		}
		m[col] = vals[i]
	}
	return m, nil
}

func scanStruct(rows Rows, v reflect.Value) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fields := fieldsOf(v.Type())
	dest := make([]any, len(cols))
	for i, col := range cols {
		index, ok := fields[strings.ToLower(col)]
		if !ok {
			return &DecodeError{Column: col, Err: fmt.Errorf("no field of %s matches the column", v.Type())}
		}
		dest[i] = fieldByIndexAlloc(v, index).Addr().Interface()
	}
	if err := rows.Scan(dest...); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// fieldsOf maps lower-cased column names to field index paths of t.
func fieldsOf(t reflect.Type) map[string][]int {
	if cached, ok := structFields.Load(t); ok {
		return cached.(map[string][]int)
	}

	tagged := make(map[string][]int)
	named := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || throughUnexportedPointer(t, f.Index) {
			continue
		}
		tag, hasTag := f.Tag.Lookup("db")
		if tag == "-" {
			continue
		}
		if f.Anonymous && !hasTag && isEmbeddedStruct(f.Type) {
			continue
		}
		if name, _, _ := strings.Cut(tag, ","); hasTag && name != "" {
			tagged[strings.ToLower(name)] = f.Index
			continue
		}
		for _, key := range []string{strings.ToLower(f.Name), dbstrings.ToSnakeCase(f.Name)} {
			if _, dup := named[key]; !dup {
				named[key] = f.Index
			}
		}
	}
	for k, idx := range tagged {
		named[k] = idx
	}

	actual, _ := structFields.LoadOrStore(t, named)
	return actual.(map[string][]int)
}

// throughUnexportedPointer reports whether the field at index is promoted
// through an unexported embedded pointer. Such a pointer cannot be
// allocated by reflection, so its fields are not decode targets.
func throughUnexportedPointer(t reflect.Type, index []int) bool {
	for i := 1; i < len(index); i++ {
		f := t.FieldByIndex(index[:i])
		if !f.IsExported() && f.Type.Kind() == reflect.Pointer {
			return true
		}
	}
	return false
}

func isEmbeddedStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType
}

// fieldByIndexAlloc is reflect.Value.FieldByIndex that allocates nil embedded
// struct pointers on the way down.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}
