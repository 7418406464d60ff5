package memory

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/copystructure"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
)

var timeType = reflect.TypeOf(time.Time{})

// deepCopy returns a copy of v that shares no mutable memory with it.
// Supported shapes: scalars, strings, time.Time, and pointers, interfaces, slices, arrays,
// maps and exported-field structs built from them. Anything else is rejected up front
// rather than copied partially.
func deepCopy(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if err := checkCopyable(reflect.ValueOf(v), map[visit]bool{}); err != nil {
		return nil, err
	}
	out, err := copystructure.Copy(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrUnsupportedValue, err)
	}
	return out, nil
}

// visit identifies a pointer, map or slice header on the walk path. Slices also carry
// their length so a sub-slice sharing the backing array is not mistaken for its parent.
type visit struct {
	addr uintptr
	typ  reflect.Type
	len  int
}

// enter marks v as on the current path. It reports false when v is already there.
func enter(v reflect.Value, length int, visiting map[visit]bool) (visit, bool) {
	k := visit{addr: v.Pointer(), typ: v.Type(), len: length}
	if visiting[k] {
		return k, false
	}
	visiting[k] = true
	return k, true
}

// checkCopyable walks v. visiting holds the references on the current path so cycles
// through pointers, maps or slices are refused.
func checkCopyable(v reflect.Value, visiting map[visit]bool) error {
	switch v.Kind() {
	case reflect.Invalid,
		reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s", cache.ErrUnsupportedValue, v.Type())
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		k, ok := enter(v, 0, visiting)
		if !ok {
			return fmt.Errorf("%w: cyclic %s", cache.ErrUnsupportedValue, v.Type())
		}
		defer delete(visiting, k)
		return checkCopyable(v.Elem(), visiting)
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return checkCopyable(v.Elem(), visiting)
	case reflect.Slice, reflect.Array:
		if isScalarKind(v.Type().Elem().Kind()) {
			return nil
		}
		if v.Kind() == reflect.Slice && v.Len() > 0 {
			k, ok := enter(v, v.Len(), visiting)
			if !ok {
				return fmt.Errorf("%w: cyclic %s", cache.ErrUnsupportedValue, v.Type())
			}
			defer delete(visiting, k)
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkCopyable(v.Index(i), visiting); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		k, ok := enter(v, 0, visiting)
		if !ok {
			return fmt.Errorf("%w: cyclic %s", cache.ErrUnsupportedValue, v.Type())
		}
		defer delete(visiting, k)
		iter := v.MapRange()
		for iter.Next() {
			if err := checkCopyable(iter.Key(), visiting); err != nil {
				return err
			}
			if err := checkCopyable(iter.Value(), visiting); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		if v.Type() == timeType {
			return nil
		}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				return fmt.Errorf("%w: %s has unexported field %s", cache.ErrUnsupportedValue, t, f.Name)
			}
			if err := checkCopyable(v.Field(i), visiting); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", cache.ErrUnsupportedValue, v.Type())
	}
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// assign stores v into the value dst points to.
func assign(dst any, v any) error {
	target, err := destination(dst)
	if err != nil {
		return err
	}
	if v == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(target.Type()):
		target.Set(src)
	case src.Kind() == target.Kind() && src.Type().ConvertibleTo(target.Type()):
		target.Set(src.Convert(target.Type()))
	default:
		return fmt.Errorf("%w: have %s, want %s", cache.ErrTypeMismatch, src.Type(), target.Type())
	}
	return nil
}

func destination(dst any) (reflect.Value, error) {
	if err := cache.ValidateDestination(dst); err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(dst).Elem(), nil
}
