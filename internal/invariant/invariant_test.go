package invariant

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreconditionPassesSilently(t *testing.T) {
	assert.NotPanics(t, func() { Precondition(true, "should not fire") })
}

func TestPreconditionPanicsOnViolation(t *testing.T) {
	var got interface{}
	func() {
		defer func() { got = recover() }()
		Precondition(false, "value %d must be positive", -1)
	}()
	msg, ok := got.(string)
	assert.True(t, ok, "Precondition must panic with a string message")
	assert.True(t, strings.HasPrefix(msg, "PRECONDITION VIOLATION: value -1 must be positive\n  at "), msg)
	assert.Contains(t, msg, "invariant_test.go:")
}

func TestPostconditionPanics(t *testing.T) {
	assert.Panics(t, func() { Postcondition(false, "output invalid") })
}

func TestInvariantPanics(t *testing.T) {
	assert.Panics(t, func() { Invariant(1 == 2, "impossible") })
}

func TestNotNilAcceptsNonNil(t *testing.T) {
	assert.NotPanics(t, func() { NotNil("value", "name") })
}

func TestNotNilRejectsNilInterface(t *testing.T) {
	assert.Panics(t, func() { NotNil(nil, "name") })
}

func TestNotNilRejectsTypedNilPointer(t *testing.T) {
	var p *int
	assert.Panics(t, func() { NotNil(p, "name") })
}

func TestSortedAcceptsStrictlyAscending(t *testing.T) {
	items := []int{1, 2, 3}
	assert.NotPanics(t, func() {
		Sorted(items, func(a, b int) bool { return a < b }, "ints")
	})
}

func TestSortedRejectsOutOfOrder(t *testing.T) {
	items := []int{1, 3, 2}
	assert.Panics(t, func() {
		Sorted(items, func(a, b int) bool { return a < b }, "ints")
	})
}

func TestExpectNoErrorPanicsOnError(t *testing.T) {
	assert.Panics(t, func() { ExpectNoError(errors.New("boom"), "operation") })
}

func TestExpectNoErrorSilentOnNil(t *testing.T) {
	assert.NotPanics(t, func() { ExpectNoError(nil, "operation") })
}
