package ast

import "testing"

func TestSplitType(t *testing.T) {
	tests := []struct {
		in       string
		base     string
		generics string
		dims     int
	}{
		{"int", "int", "", 0},
		{"int[][]", "int", "", 2},
		{"String...", "String", "", 1},
		{"List<String>", "List", "<String>", 0},
		{"Map.Entry<K, V>[]", "Map.Entry", "<K, V>", 1},
		{"List<int[]>", "List", "<int[]>", 0},
		{"Map<String, List<Integer>>", "Map", "<String, List<Integer>>", 0},
		{"int [ ]", "int", "", 1},
	}
	for _, tt := range tests {
		base, gen, dims := SplitType(tt.in)
		if base != tt.base || gen != tt.generics || dims != tt.dims {
			t.Errorf("SplitType(%q) = (%q, %q, %d), want (%q, %q, %d)",
				tt.in, base, gen, dims, tt.base, tt.generics, tt.dims)
		}
	}
}

func TestStripGenericsAndSimpleName(t *testing.T) {
	if got := StripGenerics("List<Map<K,V>>[]"); got != "List[]" {
		t.Errorf("StripGenerics = %q", got)
	}
	if got := SimpleName("pkg.Outer$Inner"); got != "Inner" {
		t.Errorf("SimpleName = %q", got)
	}
	if got := SimpleName("Plain"); got != "Plain" {
		t.Errorf("SimpleName = %q", got)
	}
}

func TestQualifiedTypeCopiesAreIndependent(t *testing.T) {
	base := QualifiedType{Name: "pkg.A"}
	arr := base.WithDims(2)
	if base.Dims != 0 || arr.Dims != 2 {
		t.Fatalf("WithDims must not mutate the receiver")
	}
	if arr.String() != "pkg.A[][]" {
		t.Errorf("String() = %q", arr.String())
	}
	if !base.IsExternal() {
		t.Errorf("type without declaration should be external")
	}
	if !External("int").IsPrimitive() || External("int").WithDims(1).IsPrimitive() {
		t.Errorf("primitive detection must account for dimensions")
	}
}

func TestParamEffectiveType(t *testing.T) {
	if got := (Param{Type: "String", Varargs: true}).EffectiveType(); got != "String[]" {
		t.Errorf("varargs flag: %q", got)
	}
	if got := (Param{Type: "String..."}).EffectiveType(); got != "String[]" {
		t.Errorf("varargs suffix: %q", got)
	}
	if got := (Param{Type: "int[]"}).EffectiveType(); got != "int[]" {
		t.Errorf("array: %q", got)
	}
}
