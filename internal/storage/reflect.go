package storage

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

func getStructName(myvar interface{}) string {
	if t := reflect.TypeOf(myvar); t == nil {
		return "<nil>"
	} else if t.Kind() == reflect.Ptr {
		return t.Elem().Name()
	} else {
		return t.Name()
	}
}

func indirect(v reflect.Value) interface{} {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	}
	return v.Interface()
}

// setFromString sets a primary key field from the string redis hands back
func setFromString(f reflect.Value, s string) error {
	if f.Kind() == reflect.Ptr {
		f.Set(reflect.New(f.Type().Elem()))
		f = f.Elem()
	}

	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		f.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		f.SetUint(i)
	case reflect.String:
		f.SetString(s)
	default:
		return fmt.Errorf("storage: unsupported primary key kind %s", f.Kind())
	}
	return nil
}

// destSlice checks that dest is a pointer to a slice of t (or of *t)
func destSlice(dest interface{}, t reflect.Type) (reflect.Value, bool, error) {
	value := reflect.ValueOf(dest)

	// need dest to be a pointer to a slice
	if value.Kind() != reflect.Ptr {
		return reflect.Value{}, false, errors.New("storage: dest must be a pointer to a slice")
	}
	if value.IsNil() {
		return reflect.Value{}, false, errors.New("storage: dest cannot be a nil pointer")
	}

	direct := reflect.Indirect(value)
	if direct.Kind() != reflect.Slice {
		return reflect.Value{}, false, fmt.Errorf("storage: expected slice but got %s", direct.Kind())
	}

	elem := direct.Type().Elem()
	isPointer := elem.Kind() == reflect.Ptr
	if isPointer {
		elem = elem.Elem()
	}
	if elem != t {
		return reflect.Value{}, false, fmt.Errorf("storage: dest holds %s but the query returns %s", elem, t)
	}

	return direct, isPointer, nil
}

// fillDest replaces dest's contents with rows (pointers to structs)
func fillDest(direct reflect.Value, isPointer bool, rows []reflect.Value) {
	out := reflect.MakeSlice(direct.Type(), 0, len(rows))
	for _, row := range rows {
		if isPointer {
			out = reflect.Append(out, row)
		} else {
			out = reflect.Append(out, row.Elem())
		}
	}
	direct.Set(out)
}
