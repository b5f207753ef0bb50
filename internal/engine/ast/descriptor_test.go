package ast

import "testing"

func TestFlagMatches(t *testing.T) {
	tests := []struct {
		a, b Flag
		want bool
	}{
		{Unspecified, Unspecified, true},
		{Unspecified, True, true},
		{False, Unspecified, true},
		{True, True, true},
		{True, False, false},
	}
	for _, tt := range tests {
		if got := tt.a.Matches(tt.b); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMethodDescriptorStrictVersusLenient(t *testing.T) {
	decl := &MethodDecl{
		Name:       "run",
		Modifiers:  ParseModifiers([]string{"public", "final"}),
		ReturnType: "void",
		Params:     []Param{{Type: "int", Name: "n"}, {Type: "String", Name: "rest", Varargs: true}},
	}
	parsed := decl.Descriptor()

	query := MethodDescriptor{Name: "run", Visibility: Public, Final: True}
	if !query.Matches(parsed) {
		t.Fatalf("expected sparse query to match %+v", parsed)
	}
	if query.Equal(parsed) {
		t.Fatalf("strict equality must not treat unspecified fields as wildcards")
	}
	if !parsed.Equal(decl.Descriptor()) {
		t.Fatalf("expected a descriptor to equal itself")
	}

	wrong := MethodDescriptor{Name: "run", Static: True}
	if wrong.Matches(parsed) {
		t.Fatalf("static=true must not match a non-static method")
	}

	params := MethodDescriptor{Parameters: []string{"int", "String[]"}}
	if !params.Matches(parsed) {
		t.Fatalf("expected varargs to be compared as an array, got %v", parsed.Parameters)
	}
}

func TestTypeDescriptorNilVersusEmpty(t *testing.T) {
	decl := &TypeDecl{Kind: KindClass, Name: "A", Modifiers: ParseModifiers(nil)}
	parsed := decl.Descriptor()
	if parsed.Extends == nil || len(parsed.Extends) != 0 {
		t.Fatalf("parsed descriptor should specify an empty extends list")
	}

	unspecified := TypeDescriptor{Name: "A"}
	if !unspecified.Matches(parsed) {
		t.Fatalf("unspecified extends should match anything")
	}
	if unspecified.Equal(TypeDescriptor{Name: "A", Extends: []string{}}) {
		t.Fatalf("nil and empty lists must differ under strict equality")
	}
	if (TypeDescriptor{Kind: KindInterface}).Matches(parsed) {
		t.Fatalf("interface query must not match a class")
	}
}

func TestVariableDescriptor(t *testing.T) {
	v := &VarDecl{Name: "x", Type: "int", Modifiers: ParseModifiers([]string{"private", "volatile"}), Field: true}
	d := v.Descriptor()
	if d.Visibility != Private || d.Volatile != True || d.Transient != False {
		t.Fatalf("unexpected descriptor %+v", d)
	}
	if !(VariableDescriptor{Type: "int"}).Matches(d) {
		t.Fatalf("type-only query should match")
	}
	if (VariableDescriptor{Type: "long"}).Matches(d) {
		t.Fatalf("type mismatch should not match")
	}
}

func TestParseModifiersDefaultsToPackagePrivate(t *testing.T) {
	m := ParseModifiers([]string{"static"})
	if m.Visibility != PackagePrivate {
		t.Errorf("expected package visibility, got %q", m.Visibility)
	}
	if m.Static != True || m.Final != False {
		t.Errorf("unexpected flags %+v", m)
	}
}
