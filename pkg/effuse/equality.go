package effuse

import "reflect"

// defaultEquals provides shallow, identity-style equality: primitives
// compare with ==, reference kinds compare by referent, and everything
// else falls back to reflect.DeepEqual. Mutating the interior of a value
// held by a Signal without replacing it therefore does not count as a
// change; deep per-key reactivity is Rx's job, not Signal's.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return identicalAny(any(a), any(b))
	}
}

// Identical reports whether two type-erased values are shallowly equal
// under the framework's change-detection rules. Exported for layers
// (prop diffing, stores) that compare values the same way signals do.
func Identical(a, b any) bool {
	return identicalAny(a, b)
}

// identicalAny compares two type-erased values shallowly. Reference kinds
// (pointer, map, slice, chan, func) are identical only when they share a
// referent; comparable values use reflect.DeepEqual as the last resort,
// matching the framework-wide shallow change-detection contract.
func identicalAny(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return false
	}

	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && (va.Len() == 0 || va.Pointer() == vb.Pointer())
	default:
		return reflect.DeepEqual(a, b)
	}
}
