// Package formula parses and evaluates the small numeric expression
// language used by scenario cost models, e.g.
//
//	edge.cost * 2 + target.size
//	0.5 + size * 0.1
//	(size > 100) * 5 + 1
//
// Every value is a float64. Comparisons, AND, OR and NOT yield 1 or 0.
package formula

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// -----------------------------------------------------------------------
// AST nodes
// -----------------------------------------------------------------------

// Expr is the common interface for all AST nodes.
type Expr interface {
	exprNode()
}

// BinaryExpr is <left> <op> <right> for arithmetic, comparison and logic.
type BinaryExpr struct {
	Op    Operator
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// NotExpr represents NOT <expr>.
type NotExpr struct {
	Expr Expr
}

func (*NotExpr) exprNode() {}

// NegExpr represents -<expr>.
type NegExpr struct {
	Expr Expr
}

func (*NegExpr) exprNode() {}

// Literal holds a constant.
type Literal struct {
	Value float64
}

func (*Literal) exprNode() {}

// Field holds a variable name like "edge.cost".
type Field struct {
	Name string
}

func (*Field) exprNode() {}

// Call applies a built-in function (min, max, abs).
type Call struct {
	Fn   string
	Args []Expr
}

func (*Call) exprNode() {}

// -----------------------------------------------------------------------
// Tokenizer
// -----------------------------------------------------------------------

type tokenKind int

const (
	tokWord   tokenKind = iota // identifier or keyword
	tokOp                      // ==, !=, >=, <=, >, <, +, -, *, /
	tokNumber                  // 42 | 3.14
	tokBool                    // true | false
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case unicode.IsSpace(rune(ch)):
			i++
		case ch == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case ch == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case ch == ',':
			tokens = append(tokens, token{tokComma, ",", i})
			i++
		case ch == '=' || ch == '!' || ch == '<' || ch == '>':
			if i+1 < len(expr) && expr[i+1] == '=' {
				tokens = append(tokens, token{tokOp, expr[i : i+2], i})
				i += 2
				continue
			}
			if ch == '=' || ch == '!' {
				return nil, fmt.Errorf("unexpected character %q at position %d", ch, i)
			}
			tokens = append(tokens, token{tokOp, string(ch), i})
			i++
		case ch == '*' || ch == '/' || ch == '+' || ch == '-':
			// unary minus is resolved by the parser
			tokens = append(tokens, token{tokOp, string(ch), i})
			i++
		case unicode.IsDigit(rune(ch)) || ch == '.':
			j := i
			for j < len(expr) && (unicode.IsDigit(rune(expr[j])) || expr[j] == '.') {
				j++
			}
			// exponent, e.g. 1e-3
			if j < len(expr) && (expr[j] == 'e' || expr[j] == 'E') {
				k := j + 1
				if k < len(expr) && (expr[k] == '+' || expr[k] == '-') {
					k++
				}
				if k < len(expr) && unicode.IsDigit(rune(expr[k])) {
					j = k
					for j < len(expr) && unicode.IsDigit(rune(expr[j])) {
						j++
					}
				}
			}
			tokens = append(tokens, token{tokNumber, expr[i:j], i})
			i = j
		case unicode.IsLetter(rune(ch)) || ch == '_':
			j := i
			for j < len(expr) && (unicode.IsLetter(rune(expr[j])) || unicode.IsDigit(rune(expr[j])) || expr[j] == '_' || expr[j] == '.') {
				j++
			}
			word := expr[i:j]
			switch strings.ToLower(word) {
			case "true", "false":
				tokens = append(tokens, token{tokBool, strings.ToLower(word), i})
			default:
				tokens = append(tokens, token{tokWord, word, i})
			}
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", ch, i)
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(expr)})
	return tokens, nil
}

// -----------------------------------------------------------------------
// Recursive-descent parser
// -----------------------------------------------------------------------

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) consume() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) expect(kind tokenKind, val string) error {
	t := p.peek()
	if t.kind != kind || (val != "" && t.val != val) {
		if t.kind == tokEOF {
			return fmt.Errorf("expected %q but reached end of expression", val)
		}
		return fmt.Errorf("expected %q but got %q at position %d", val, t.val, t.pos)
	}
	p.consume()
	return nil
}

func (p *parser) keyword(kw string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.val, kw)
}

// Parse parses an expression string into an AST.
func Parse(expr string) (Expr, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", t.val, t.pos)
	}
	return node, nil
}

// or_expr = and_expr ( "OR" and_expr )*
func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.consume()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

// and_expr = not_expr ( "AND" not_expr )*
func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.consume()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

// not_expr = "NOT" not_expr | comparison
func (p *parser) parseNot() (Expr, error) {
	if p.keyword("NOT") {
		p.consume()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: inner}, nil
	}
	return p.parseComparison()
}

// comparison = sum [ cmp_op sum ]
func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && Operator(t.val).comparison() {
		p.consume()
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: Operator(t.val), Left: left, Right: right}, nil
	}
	return left, nil
}

// sum = product ( ("+" | "-") product )*
func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.val == "+" || t.val == "-"); t = p.peek() {
		p.consume()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: Operator(t.val), Left: left, Right: right}
	}
	return left, nil
}

// product = unary ( ("*" | "/") unary )*
func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.val == "*" || t.val == "/"); t = p.peek() {
		p.consume()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: Operator(t.val), Left: left, Right: right}
	}
	return left, nil
}

// unary = "-" unary | primary
func (p *parser) parseUnary() (Expr, error) {
	if t := p.peek(); t.kind == tokOp && t.val == "-" {
		p.consume()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := inner.(*Literal); ok {
			return &Literal{Value: -lit.Value}, nil
		}
		return &NegExpr{Expr: inner}, nil
	}
	return p.parsePrimary()
}

// primary = number | bool | field | call | "(" or_expr ")"
func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.consume()
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", t.val, t.pos)
		}
		return &Literal{Value: f}, nil
	case tokBool:
		p.consume()
		return &Literal{Value: boolValue(t.val == "true")}, nil
	case tokLParen:
		p.consume()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokWord:
		p.consume()
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		return &Field{Name: t.val}, nil
	case tokEOF:
		return nil, fmt.Errorf("expected operand but reached end of expression")
	default:
		return nil, fmt.Errorf("expected operand, got %q at position %d", t.val, t.pos)
	}
}

// call = name "(" or_expr ( "," or_expr )* ")"
func (p *parser) parseCall(name token) (Expr, error) {
	fn := strings.ToLower(name.val)
	if _, ok := functions[fn]; !ok {
		return nil, fmt.Errorf("unknown function %q at position %d", name.val, name.pos)
	}
	p.consume() // (
	call := &Call{Fn: fn}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.peek().kind != tokComma {
			break
		}
		p.consume()
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	if fn == "abs" && len(call.Args) != 1 {
		return nil, fmt.Errorf("abs takes one argument, got %d", len(call.Args))
	}
	return call, nil
}

// Fields returns the distinct variable names referenced by expr, sorted.
func Fields(expr Expr) []string {
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Field:
			seen[n.Name] = true
		case *BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		case *NotExpr:
			walk(n.Expr)
		case *NegExpr:
			walk(n.Expr)
		case *Call:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}
	walk(expr)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
