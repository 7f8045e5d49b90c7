package aql

// Expr is an AQL expression.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode()
}

// Statement is one AQL high-level operation.
//
// This is a sealed interface - only types in this package implement it.
type Statement interface {
	statementNode()
}

// Ident references a variable introduced by FOR, LET or COLLECT.
type Ident string

func (Ident) exprNode() {}

// Attr is attribute access on a base expression.
//
// Fixed document fields go in Dotted and render as .name; catalog segments go
// in Keys and render as ["segment"]. Dotted segments are always emitted before
// Keys.
//
//	Attr{Base: Ident("item"), Dotted: []string{"properties"}, Keys: []string{"1981-2010", "bio01"}}
//
// renders as
//
//	item.properties["1981-2010"]["bio01"]
type Attr struct {
	Base   Expr
	Dotted []string
	Keys   []string
}

func (Attr) exprNode() {}

// Bind references a value bind parameter (@name).
type Bind string

func (Bind) exprNode() {}

// Literal is raw AQL literal text such as 1 or null. It must never carry
// caller-supplied data.
type Literal string

func (Literal) exprNode() {}

// Call is a function call such as GEO_DISTANCE(a, b).
type Call struct {
	Func string
	Args []Expr
}

func (Call) exprNode() {}

// Binary is a binary operation such as a >= b or a == b.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (Binary) exprNode() {}

// And is a conjunction. An empty And renders as true.
type And struct {
	Terms []Expr
}

func (And) exprNode() {}

// Object is an object literal. Fields keep their declared order.
type Object struct {
	Fields []Field
}

func (Object) exprNode() {}

// Field is one key/value pair of an Object.
type Field struct {
	Key   string
	Value Expr
}

// Let binds an expression to a variable.
//
//	LET <Var> = <Expr>
type Let struct {
	Var  string
	Expr Expr
}

func (Let) statementNode() {}

// For iterates a collection bound through a collection parameter.
//
//	FOR <Var> IN @@<Collection>
type For struct {
	Var        string
	Collection string
}

func (For) statementNode() {}

// Filter drops rows for which Cond is false.
type Filter struct {
	Cond Expr
}

func (Filter) statementNode() {}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SortKey is one SORT criterion.
type SortKey struct {
	Expr Expr
	Dir  Direction
}

// Sort orders rows by Keys, in priority order.
type Sort struct {
	Keys []SortKey
}

func (Sort) statementNode() {}

// Limit skips Offset rows and returns at most Count.
//
//	LIMIT <Offset>, <Count>
type Limit struct {
	Offset Expr
	Count  Expr
}

func (Limit) statementNode() {}

// Assign is one aggregate assignment of COLLECT AGGREGATE.
type Assign struct {
	Var  string
	Expr Expr
}

// CollectAggregate reduces all rows to a single row without grouping.
//
//	COLLECT AGGREGATE <var> = <expr>, ...
type CollectAggregate struct {
	Aggregates []Assign
}

func (CollectAggregate) statementNode() {}

// Return emits one result per row.
type Return struct {
	Expr Expr
}

func (Return) statementNode() {}

// Query is an ordered list of statements. The renderer indents every
// statement that follows a FOR.
type Query struct {
	Statements []Statement
}

// Append adds statements to the query.
func (q *Query) Append(stmts ...Statement) {
	q.Statements = append(q.Statements, stmts...)
}
