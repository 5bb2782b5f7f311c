package alloc

import (
	"reflect"

	"github.com/modern-go/reflect2"
)

// pointerFree reports whether T can live in memory the garbage collector
// does not scan.
func pointerFree[T any]() bool {
	return !hasPointers(reflect2.TypeOfPtr((*T)(nil)).Elem().Type1())
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.String,
		reflect.Interface, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
