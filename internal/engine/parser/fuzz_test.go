package parser

import (
	"testing"
)

func FuzzJavaParser(f *testing.F) {
	f.Add([]byte(`package p;
class A extends B implements C<D> {
	int x = foo(1, "a", null);
	void run() { for (int i = 0; i < 3; i++) { this.x += i; } }
}`))
	f.Add([]byte(`enum E { A { void f() {} }, B; }`))
	f.Add([]byte(`class R { Object o = (x) -> { return new Object() {}; }; `))

	p := NewParser(nil)
	f.Fuzz(func(t *testing.T, data []byte) {
		decls, err := p.ParseFile("Fuzz.java", data)
		if err != nil {
			return
		}
		for _, d := range decls {
			if d == nil {
				t.Fatal("nil declaration in result")
			}
		}
	})
}
