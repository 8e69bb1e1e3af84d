package utils

import (
	"testing"

	"golang.org/x/exp/slices"
)

// AssertEquals fails the test immediately if result differs from expected.
func AssertEquals[T comparable](t *testing.T, expected T, result T) {
	t.Helper()
	if expected != result {
		t.Logf("%s is failed. Got '%v', expected '%v'", t.Name(), result, expected)
		t.FailNow()
	}
}

// AssertSliceEquals compares two slices element by element, in order.
func AssertSliceEquals[T comparable](t *testing.T, expected []T, result []T) {
	t.Helper()
	if !slices.Equal(expected, result) {
		t.Logf("%s is failed. Got '%v', expected '%v'", t.Name(), result, expected)
		t.FailNow()
	}
}

func AssertNil(t *testing.T, result interface{}) {
	t.Helper()
	if nil != result {
		t.Logf("%s is failed. Got '%v', expected nil", t.Name(), result)
		t.FailNow()
	}
}

func AssertTrue(t *testing.T, isTrue bool) {
	t.Helper()
	if !isTrue {
		t.Logf("%s is failed. Got false", t.Name())
		t.FailNow()
	}
}

// AssertTrueMsg is like AssertTrue but prints msg when the test fails.
func AssertTrueMsg(t *testing.T, isTrue bool, msg string) {
	t.Helper()
	if !isTrue {
		t.Logf("%s is false - %s", t.Name(), msg)
		t.FailNow()
	}
}

func AssertFalse(t *testing.T, isTrue bool) {
	t.Helper()
	if isTrue {
		t.Logf("%s is failed. Got true", t.Name())
		t.FailNow()
	}
}
