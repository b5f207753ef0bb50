package resolver

import "strings"

// LambdaType is the fixed type given to every lambda expression.
const LambdaType = "java.util.function.Function"

// javaLang holds the java.lang types visible without an import.
var javaLang = map[string]bool{
	"AbstractMethodError":             true,
	"Appendable":                      true,
	"ArithmeticException":             true,
	"ArrayIndexOutOfBoundsException":  true,
	"ArrayStoreException":             true,
	"AssertionError":                  true,
	"AutoCloseable":                   true,
	"Boolean":                         true,
	"Byte":                            true,
	"CharSequence":                    true,
	"Character":                       true,
	"Class":                           true,
	"ClassCastException":              true,
	"ClassLoader":                     true,
	"ClassNotFoundException":          true,
	"CloneNotSupportedException":      true,
	"Cloneable":                       true,
	"Comparable":                      true,
	"Deprecated":                      true,
	"Double":                          true,
	"Enum":                            true,
	"Error":                           true,
	"Exception":                       true,
	"Float":                           true,
	"FunctionalInterface":             true,
	"IllegalAccessException":          true,
	"IllegalArgumentException":        true,
	"IllegalStateException":           true,
	"IndexOutOfBoundsException":       true,
	"InstantiationException":          true,
	"Integer":                         true,
	"InterruptedException":            true,
	"Iterable":                        true,
	"LinkageError":                    true,
	"Long":                            true,
	"Math":                            true,
	"NegativeArraySizeException":      true,
	"NoSuchFieldException":            true,
	"NoSuchMethodException":           true,
	"NullPointerException":            true,
	"Number":                          true,
	"NumberFormatException":           true,
	"Object":                          true,
	"OutOfMemoryError":                true,
	"Override":                        true,
	"Process":                         true,
	"ProcessBuilder":                  true,
	"Record":                          true,
	"ReflectiveOperationException":    true,
	"Runnable":                        true,
	"Runtime":                         true,
	"RuntimeException":                true,
	"SafeVarargs":                     true,
	"SecurityException":               true,
	"Short":                           true,
	"StackOverflowError":              true,
	"StrictMath":                      true,
	"String":                          true,
	"StringBuffer":                    true,
	"StringBuilder":                   true,
	"StringIndexOutOfBoundsException": true,
	"SuppressWarnings":                true,
	"System":                          true,
	"Thread":                          true,
	"ThreadLocal":                     true,
	"Throwable":                       true,
	"UnsupportedOperationException":   true,
	"Void":                            true,
}

var boxes = map[string]string{
	"boolean": "java.lang.Boolean",
	"byte":    "java.lang.Byte",
	"short":   "java.lang.Short",
	"char":    "java.lang.Character",
	"int":     "java.lang.Integer",
	"long":    "java.lang.Long",
	"float":   "java.lang.Float",
	"double":  "java.lang.Double",
}

// numeric widening order; char widens to int and beyond.
var numericRank = map[string]int{
	"byte":   1,
	"short":  2,
	"char":   2,
	"int":    3,
	"long":   4,
	"float":  5,
	"double": 6,
}

// widens reports whether a primitive of type from is assignable to to
// without a cast.
func widens(from, to string) bool {
	if from == to {
		return true
	}
	rf, okf := numericRank[from]
	rt, okt := numericRank[to]
	if !okf || !okt {
		return false
	}
	if from == "char" {
		return rt >= 3
	}
	if to == "char" {
		return false
	}
	return rf < rt
}

// promote applies binary numeric promotion to a primitive name.
func promote(name string) string {
	switch name {
	case "float", "double":
		return "double"
	case "byte", "short", "char", "int":
		return "int"
	}
	return name
}

// literalType classifies literal source text. The checks are textual and
// ordered; this is not a full numeric-literal grammar.
func literalType(text string) string {
	switch {
	case text == "null":
		return "java.lang.Object"
	case strings.HasPrefix(text, `"`):
		return "java.lang.String"
	case strings.HasPrefix(text, "'"):
		return "char"
	case text == "true" || text == "false":
		return "boolean"
	}

	lower := strings.ToLower(strings.ReplaceAll(text, "_", ""))
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") {
		if strings.HasSuffix(lower, "l") {
			return "long"
		}
		return "int"
	}
	switch {
	case strings.HasSuffix(lower, "d") || strings.Contains(lower, "."):
		// A decimal point wins over an f suffix, so 1.5f reads as double.
		return "double"
	case strings.HasSuffix(lower, "f"):
		return "float"
	case strings.HasSuffix(lower, "l"):
		return "long"
	case strings.Contains(lower, "e"):
		return "double"
	}
	return "int"
}
