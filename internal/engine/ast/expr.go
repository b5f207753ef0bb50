package ast

// Expr is a closed set of expression variants. Consumers switch over the
// concrete types and treat anything else as unresolvable.
type Expr interface {
	Node
	exprNode()
}

type UnitKind int

const (
	UnitLiteral UnitKind = iota
	UnitIdentifier
	UnitClassReference
	UnitMethodReference
	UnitSuper
	UnitThis
	UnitThisCall
	UnitSuperCall
	UnitType
	UnitNew
	UnitMethodCall
)

func (k UnitKind) String() string {
	switch k {
	case UnitLiteral:
		return "literal"
	case UnitIdentifier:
		return "identifier"
	case UnitClassReference:
		return "class-reference"
	case UnitMethodReference:
		return "method-reference"
	case UnitSuper:
		return "super"
	case UnitThis:
		return "this"
	case UnitThisCall:
		return "this-call"
	case UnitSuperCall:
		return "super-call"
	case UnitType:
		return "type"
	case UnitNew:
		return "new"
	case UnitMethodCall:
		return "method-call"
	}
	return "unknown"
}

type (
	ArrayAccess struct {
		Array Expr
		Index Expr
	}

	// ArrayCreation is new T[n][]..., optionally with an initializer.
	ArrayCreation struct {
		Type      string
		Dims      []Expr
		ExtraDims int
		Init      *ArrayInit
	}

	ArrayInit struct {
		Elements []Expr
	}

	// Binary covers arithmetic, comparison, logical, assignment, instanceof
	// and member access ("."). For instanceof the right side is a type unit.
	Binary struct {
		Left  Expr
		Op    string
		Right Expr
	}

	Cast struct {
		Type string
		X    Expr
	}

	// Instantiate is new T(args), with Body set for anonymous classes.
	Instantiate struct {
		Type  string
		Args  []Expr
		Body  []Stmt
		Outer Expr
		Pos   Position
	}

	Lambda struct {
		Params []Param
		Expr   Expr
		Block  *Block
	}

	Paren struct {
		X Expr
	}

	Postfix struct {
		X  Expr
		Op string
	}

	Prefix struct {
		Op string
		X  Expr
	}

	Ternary struct {
		Cond Expr
		Then Expr
		Else Expr
	}

	// Unit is a leaf: literal, name, this/super and similar. Qualifier holds
	// the left side of Outer.this and Type::method; Args holds this(...) and
	// super(...) arguments.
	Unit struct {
		Kind      UnitKind
		Value     string
		Qualifier string
		Args      []Expr
		Pos       Position
	}
)

// MethodCall is name(args) with an optional explicit receiver. ArgTypes,
// Source and Target are filled in by resolution passes; each call node is
// written by a single goroutine.
type MethodCall struct {
	Name     string
	Receiver Expr
	Args     []Expr
	TypeArgs []string
	Pos      Position

	ArgTypes []*QualifiedType
	Source   *QualifiedType
	Target   *MethodDecl
}

func (*ArrayAccess) node()   {}
func (*ArrayCreation) node() {}
func (*ArrayInit) node()     {}
func (*Binary) node()        {}
func (*Cast) node()          {}
func (*Instantiate) node()   {}
func (*Lambda) node()        {}
func (*MethodCall) node()    {}
func (*Paren) node()         {}
func (*Postfix) node()       {}
func (*Prefix) node()        {}
func (*Ternary) node()       {}
func (*Unit) node()          {}

func (*ArrayAccess) exprNode()   {}
func (*ArrayCreation) exprNode() {}
func (*ArrayInit) exprNode()     {}
func (*Binary) exprNode()        {}
func (*Cast) exprNode()          {}
func (*Instantiate) exprNode()   {}
func (*Lambda) exprNode()        {}
func (*MethodCall) exprNode()    {}
func (*Paren) exprNode()         {}
func (*Postfix) exprNode()       {}
func (*Prefix) exprNode()        {}
func (*Ternary) exprNode()       {}
func (*Unit) exprNode()          {}

// Convenience constructors, mostly for tests and synthesized nodes.

func Ident(name string) *Unit { return &Unit{Kind: UnitIdentifier, Value: name} }

func Lit(text string) *Unit { return &Unit{Kind: UnitLiteral, Value: text} }

func This() *Unit { return &Unit{Kind: UnitThis, Value: "this"} }

func Dot(left, right Expr) *Binary { return &Binary{Left: left, Op: ".", Right: right} }

// IsNullLiteral reports whether e is the literal null, ignoring parentheses.
func IsNullLiteral(e Expr) bool {
	for {
		p, ok := e.(*Paren)
		if !ok {
			break
		}
		e = p.X
	}
	u, ok := e.(*Unit)
	return ok && u.Kind == UnitLiteral && u.Value == "null"
}
