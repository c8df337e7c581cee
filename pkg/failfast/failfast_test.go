package failfast

import (
	"errors"
	"strings"
	"testing"
)

func TestErr(t *testing.T) {
	t.Run("no error", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Expected no panic, got: %v", r)
			}
		}()
		Err(nil)
	})

	t.Run("with error", func(t *testing.T) {
		sentinel := errors.New("test error")
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("Expected panic, got none")
			}
			err, ok := r.(error)
			if !ok {
				t.Fatalf("Expected error type, got: %T", r)
			}
			if !errors.Is(err, sentinel) {
				t.Errorf("panic error %v does not wrap sentinel", err)
			}
		}()
		Err(sentinel)
	})
}

func TestIf(t *testing.T) {
	t.Run("condition true", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Expected no panic, got: %v", r)
			}
		}()
		If(true, "should not panic")
	})

	t.Run("condition false", func(t *testing.T) {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("Expected panic, got none")
			}
			if !strings.Contains(r.(error).Error(), "attempts 3") {
				t.Errorf("unexpected message: %v", r)
			}
		}()
		If(false, "attempts %d", 3)
	})
}

func TestNotNil(t *testing.T) {
	var nilFunc func()
	var nilPtr *int
	var nilMap map[string]int

	tests := []struct {
		name      string
		value     interface{}
		wantPanic bool
	}{
		{"untyped nil", nil, true},
		{"typed nil pointer", nilPtr, true},
		{"nil func", nilFunc, true},
		{"nil map", nilMap, true},
		{"value", 42, false},
		{"func", func() {}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if (r != nil) != tt.wantPanic {
					t.Errorf("NotNil(%v) panic = %v, wantPanic %v", tt.value, r, tt.wantPanic)
				}
			}()
			NotNil(tt.value, "value")
		})
	}
}

func TestCapture(t *testing.T) {
	if err := Capture(func() {}); err != nil {
		t.Errorf("Capture() = %v, want nil", err)
	}

	err := Capture(func() { panic("boom") })
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Capture() = %T, want *PanicError", err)
	}
	if pe.Value != "boom" {
		t.Errorf("Value = %v, want boom", pe.Value)
	}
	if len(pe.Stack) == 0 {
		t.Error("Stack should not be empty")
	}

	cause := errors.New("cause")
	err = Capture(func() { panic(cause) })
	if !errors.Is(err, cause) {
		t.Errorf("Capture() = %v, want to unwrap to cause", err)
	}
}
