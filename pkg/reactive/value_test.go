package reactive

import "testing"

func TestValueDisplay(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"int", Int(42), "42"},
		{"negative int", Int(-7), "-7"},
		{"float", Float(1.5), "1.5"},
		{"whole float", Float(2), "2"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"string", String("hello"), "hello"},
		{"none", None, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	if !Int(3).Equal(Int(3)) {
		t.Error("Int(3) != Int(3)")
	}
	if Int(3).Equal(Int(4)) {
		t.Error("Int(3) == Int(4)")
	}
	if Int(1).Equal(Float(1)) {
		t.Error("Int(1) == Float(1): kinds must differ")
	}
	if !String("a").Equal(String("a")) {
		t.Error("String(a) != String(a)")
	}
	if !None.Equal(Value{}) {
		t.Error("None != zero Value")
	}
	if Bool(true).Equal(Bool(false)) {
		t.Error("Bool(true) == Bool(false)")
	}
}

func TestValueAccessorKindMismatch(t *testing.T) {
	v := String("x")
	if v.Int() != 0 || v.Float() != 0 || v.Bool() {
		t.Error("mismatched accessors should return zero values")
	}
	if Int(5).Str() != "" {
		t.Error("Str on int should return empty string")
	}
	if v.IsNone() {
		t.Error("String value reported as None")
	}
}
