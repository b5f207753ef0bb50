package query

import (
	"testing"

	"codequery/internal/engine/ast"
	"codequery/internal/engine/parser"
	"codequery/internal/engine/resolver"

	"github.com/stretchr/testify/require"
)

var shapesProject = map[string]string{
	"shapes/Shape.java": `package shapes;

public interface Shape {
    double area();
    String name();
}
`,
	"shapes/Circle.java": `package shapes;

public class Circle implements Shape {
    private final double r;

    public Circle(double r) { this.r = r; }

    @Override
    public double area() { return Math.PI * r * r; }

    public String name() { return "circle"; }

    public static Circle unit() { return new Circle(1); }
}
`,
	"shapes/Square.java": `package shapes;

public final class Square implements Shape {
    double side;

    public double area() { return scale(side, side); }

    public String name() { return "square"; }

    static double scale(double a, double b) { return a * b; }
}
`,
	"app/Report.java": `package app;

import shapes.*;

public class Report {
    static int count;

    public String describe(Shape s, int width) {
        return s.name() + s.area();
    }

    void run() {
        Shape c = Circle.unit();
        describe(c, 10);
        describe(new Square(), 20);
    }
}
`,
}

func newEngine(t *testing.T, sources map[string]string) *Engine {
	t.Helper()
	p := parser.NewParser(nil)
	files := make(map[string][]*ast.TypeDecl, len(sources))
	for path, src := range sources {
		decls, err := p.ParseFile(path, []byte(src))
		require.NoError(t, err, path)
		files[path] = decls
	}
	s := resolver.NewSession(ast.FromFiles(files), resolver.DefaultOptions())
	return NewEngine(s, 2)
}
