package ast

// Node is implemented by every statement and expression.
type Node interface {
	node()
}

// Stmt is a closed set: members of a type body and statements of a block.
type Stmt interface {
	Node
	stmtNode()
}

type (
	Block struct {
		Stmts []Stmt
	}

	ExprStmt struct {
		X Expr
	}

	If struct {
		Cond Expr
		Then Stmt
		Else Stmt
	}

	While struct {
		Cond Expr
		Body Stmt
	}

	DoWhile struct {
		Body Stmt
		Cond Expr
	}

	For struct {
		Init   []Stmt
		Cond   Expr
		Update []Expr
		Body   Stmt
	}

	ForEach struct {
		Var      *VarDecl
		Iterable Expr
		Body     Stmt
	}

	Return struct {
		Value Expr
	}

	Throw struct {
		Value Expr
	}

	Yield struct {
		Value Expr
	}

	Assert struct {
		Cond    Expr
		Message Expr
	}

	// Jump is break or continue.
	Jump struct {
		Keyword string
		Label   string
	}

	Labeled struct {
		Label string
		Body  Stmt
	}

	Try struct {
		Resources []*VarDecl
		Body      *Block
		Catches   []Catch
		Finally   *Block
	}

	Switch struct {
		Value Expr
		Cases []SwitchCase
	}

	Synchronized struct {
		Lock Expr
		Body *Block
	}
)

// Catch binds the caught exception. A multi-catch parameter is typed by its
// first alternative.
type Catch struct {
	Param *VarDecl
	Body  *Block
}

// SwitchCase has no labels for the default branch.
type SwitchCase struct {
	Labels  []Expr
	Default bool
	Body    []Stmt
}

func (*Block) node()        {}
func (*ExprStmt) node()     {}
func (*If) node()           {}
func (*While) node()        {}
func (*DoWhile) node()      {}
func (*For) node()          {}
func (*ForEach) node()      {}
func (*Return) node()       {}
func (*Throw) node()        {}
func (*Yield) node()        {}
func (*Assert) node()       {}
func (*Jump) node()         {}
func (*Labeled) node()      {}
func (*Try) node()          {}
func (*Switch) node()       {}
func (*Synchronized) node() {}
func (*TypeDecl) node()     {}
func (*MethodDecl) node()   {}
func (*VarDecl) node()      {}
func (*Initializer) node()  {}
func (*EnumConstant) node() {}

func (*Block) stmtNode()        {}
func (*ExprStmt) stmtNode()     {}
func (*If) stmtNode()           {}
func (*While) stmtNode()        {}
func (*DoWhile) stmtNode()      {}
func (*For) stmtNode()          {}
func (*ForEach) stmtNode()      {}
func (*Return) stmtNode()       {}
func (*Throw) stmtNode()        {}
func (*Yield) stmtNode()        {}
func (*Assert) stmtNode()       {}
func (*Jump) stmtNode()         {}
func (*Labeled) stmtNode()      {}
func (*Try) stmtNode()          {}
func (*Switch) stmtNode()       {}
func (*Synchronized) stmtNode() {}
func (*TypeDecl) stmtNode()     {}
func (*MethodDecl) stmtNode()   {}
func (*VarDecl) stmtNode()      {}
func (*Initializer) stmtNode()  {}
func (*EnumConstant) stmtNode() {}
