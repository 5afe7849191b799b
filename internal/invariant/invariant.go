// Package invariant provides contract assertions for the adaptive plan
// pipeline.
//
// Assertions are a force multiplier for catching pipeline bugs early: use
// Precondition/Postcondition to express function contracts, and Invariant
// for internal consistency checks such as "this list is sorted" or "this
// delta is a subset of the owned graph copy". All functions panic on
// violation — these are programming errors, never user-facing evaluation
// errors (those are reported as EVALUATION_ERROR, see package pipeline).
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including typed nils such as (*T)(nil).
func NotNil(value interface{}, name string) {
	if value == nil || isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value interface{}) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// Sorted panics unless less(items[i], items[i+1]) holds for every adjacent
// pair — used to assert strict ascending order of delta lines, actions, and
// scored candidates per the pipeline's total-ordering invariant.
func Sorted[T any](items []T, less func(a, b T) bool, name string) {
	for i := 1; i < len(items); i++ {
		if !less(items[i-1], items[i]) {
			fail("INVARIANT", "%s must be strictly ordered at index %d", name, i)
		}
	}
}

// ExpectNoError panics if err is not nil.
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

func fail(kind, format string, args ...interface{}) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}
	panic(msg)
}
