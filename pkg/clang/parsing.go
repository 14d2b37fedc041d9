package clang

import (
	"fmt"

	"tinyrv.dev/compiler/pkg/token"
	"tinyrv.dev/compiler/pkg/utils"
)

// ----------------------------------------------------------------------------
// Parser

// Parser turns a token stream into a Program by recursive-descent with
// precedence climbing. It owns two pieces of mutable, parser-instance
// state that the teacher keeps as process-global or hidden in other
// repos: the symbol table (name -> frame offset) and the label-minting
// counter. Codegen only ever reads labels and offsets off AST nodes; it
// never mints its own.
type Parser struct {
	tokens []token.Token
	pos    int // index cursor into the (immutable) token slice

	locals     utils.Stack[Local] // declaration-order local-variable table
	nextOffset int                // offset the next new local will receive

	labelCounter int // monotonic counter backing .Lend/.Lelse/.Lbegin
}

// Local is one entry of the parser's symbol table: a variable name paired
// with the frame-relative offset it was assigned the first time it was seen.
type Local struct {
	Name   string
	Offset int
}

// NewParser wraps a materialized token stream for parsing.
func NewParser(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, locals: utils.NewStack[Local](), nextOffset: 4}
}

// Parse parses the entire token stream into a Program, consuming
// statements until the token cursor reaches Eof.
func Parse(tokens []token.Token) (Program, error) {
	return NewParser(tokens).Parse()
}

// Parse is the instance form of the package-level Parse.
func (p *Parser) Parse() (Program, error) {
	program := Program{}
	for !p.atEOF() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		program = append(program, stmt)
	}
	return program, nil
}

// ----------------------------------------------------------------------------
// Token-stream primitives

func (p *Parser) head() token.Token { return p.tokens[p.pos] }

func (p *Parser) atEOF() bool { return p.head().Kind == token.Eof }

// consume pops the head token and returns true if it is a Punct or
// Keyword whose lexeme equals op; otherwise it leaves the cursor alone
// and returns false.
func (p *Parser) consume(op string) bool {
	head := p.head()
	if (head.Kind == token.Punct || head.Kind == token.Keyword) && head.Lexeme == op {
		p.pos++
		return true
	}
	return false
}

// consumeIdent pops the head token and returns it if it is an Ident.
func (p *Parser) consumeIdent() (token.Token, bool) {
	if p.head().Kind == token.Ident {
		tok := p.head()
		p.pos++
		return tok, true
	}
	return token.Token{}, false
}

// expect is consume, but a mismatch is a fatal parse error.
func (p *Parser) expect(op string) error {
	if p.consume(op) {
		return nil
	}
	return fmt.Errorf("parse error: expected %q, got %s", op, p.head())
}

// expectNumber pops a Number token and returns its value; fatal on
// mismatch.
func (p *Parser) expectNumber() (int, error) {
	if p.head().Kind != token.Number {
		return 0, fmt.Errorf("parse error: expected a number, got %s", p.head())
	}
	value := p.head().Value
	p.pos++
	return value, nil
}

// ----------------------------------------------------------------------------
// Label minting

func (p *Parser) mintIfLabels(hasElse bool) (endLabel, elseLabel string) {
	n := p.labelCounter
	p.labelCounter++
	endLabel = fmt.Sprintf(".Lend%03d", n)
	if hasElse {
		elseLabel = fmt.Sprintf(".Lelse%03d", n)
	}
	return endLabel, elseLabel
}

func (p *Parser) mintForLabels() (beginLabel, endLabel string) {
	n := p.labelCounter
	p.labelCounter += 2
	return fmt.Sprintf(".Lbegin%03d", n), fmt.Sprintf(".Lend%03d", n)
}

// ----------------------------------------------------------------------------
// Symbol table

// resolveLocal returns the LVarNode for name, allocating the next
// 4-aligned offset the first time name is seen. Offsets are never reused
// or reassigned afterwards.
func (p *Parser) resolveLocal(name string) LVarNode {
	for entry := range p.locals.Iterator() {
		if entry.Name == name {
			return LVarNode{Offset: entry.Offset}
		}
	}
	offset := p.nextOffset
	p.locals.Push(Local{Name: name, Offset: offset})
	p.nextOffset += 4
	return LVarNode{Offset: offset}
}

// FrameSize returns the total byte size of the locals area the parser has
// allocated so far, for callers (the code generator) that need to size
// the stack frame.
func (p *Parser) FrameSize() int { return p.nextOffset - 4 }

// ----------------------------------------------------------------------------
// Grammar: statements

// stmt ::= "return" expr ";"
//        | "if" "(" expr ")" stmt ("else" stmt)?
//        | "for" "(" expr? ";" expr? ";" expr? ")" stmt
//        | "while" "(" expr ")" stmt
//        | "{" stmt* "}"
//        | expr ";"
func (p *Parser) parseStmt() (Node, error) {
	switch {
	case p.consume("return"):
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
		return ReturnNode{Value: value}, nil

	case p.consume("if"):
		return p.parseIf()

	case p.consume("for"):
		return p.parseFor()

	case p.consume("while"):
		return p.parseWhile()

	case p.consume("{"):
		return p.parseBlock()

	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
		return expr, nil
	}
}

func (p *Parser) parseIf() (Node, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}

	hasElse := p.head().Kind == token.Keyword && p.head().Lexeme == "else"
	endLabel, elseLabel := p.mintIfLabels(hasElse)

	if !hasElse {
		return IfNode{Cond: cond, Then: then, EndLabel: endLabel}, nil
	}

	p.consume("else")
	els, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return IfNode{Cond: cond, Then: then, Els: els, EndLabel: endLabel, ElseLabel: elseLabel}, nil
}

func (p *Parser) parseFor() (Node, error) {
	beginLabel, endLabel := p.mintForLabels()

	if err := p.expect("("); err != nil {
		return nil, err
	}

	var init, cond, inc Node
	var err error

	if !p.consume(";") {
		if init, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
	}
	if p.head().Lexeme != ";" {
		if cond, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	if p.head().Lexeme != ")" {
		if inc, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}

	return ForNode{Init: init, Cond: cond, Inc: inc, Then: then, BeginLabel: beginLabel, EndLabel: endLabel}, nil
}

// parseWhile desugars `while (e) s` into a ForNode with only Cond set,
// per spec: it is the same node kind as a for-loop with empty init/inc.
func (p *Parser) parseWhile() (Node, error) {
	beginLabel, endLabel := p.mintForLabels()

	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}

	return ForNode{Cond: cond, Then: then, BeginLabel: beginLabel, EndLabel: endLabel}, nil
}

func (p *Parser) parseBlock() (Node, error) {
	stmts := []Node{}
	for !p.consume("}") {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return BlockNode{Stmts: stmts}, nil
}

// ----------------------------------------------------------------------------
// Grammar: expressions (precedence climbing)

// expr ::= assign
func (p *Parser) parseExpr() (Node, error) { return p.parseAssign() }

// assign ::= equality ("=" assign)?   -- right-associative
func (p *Parser) parseAssign() (Node, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	if p.consume("=") {
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return AssignNode{Lhs: lhs, Rhs: rhs}, nil
	}
	return lhs, nil
}

// equality ::= relational (("==" | "!=") relational)*
func (p *Parser) parseEquality() (Node, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.consume("=="):
			rhs, err := p.parseRelational()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Eq, Lhs: lhs, Rhs: rhs}
		case p.consume("!="):
			rhs, err := p.parseRelational()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Neq, Lhs: lhs, Rhs: rhs}
		default:
			return lhs, nil
		}
	}
}

// relational ::= add (("<" | "<=" | ">" | ">=") add)*
// `a > b` and `a >= b` are rewritten by swapping operands into Lt/Le,
// this is an AST-level rewrite, not a distinct node kind.
func (p *Parser) parseRelational() (Node, error) {
	lhs, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.consume("<"):
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Lt, Lhs: lhs, Rhs: rhs}
		case p.consume("<="):
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Le, Lhs: lhs, Rhs: rhs}
		case p.consume(">"):
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Lt, Lhs: rhs, Rhs: lhs}
		case p.consume(">="):
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Le, Lhs: rhs, Rhs: lhs}
		default:
			return lhs, nil
		}
	}
}

// add ::= mul (("+" | "-") mul)*
func (p *Parser) parseAdd() (Node, error) {
	lhs, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.consume("+"):
			rhs, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Add, Lhs: lhs, Rhs: rhs}
		case p.consume("-"):
			rhs, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Sub, Lhs: lhs, Rhs: rhs}
		default:
			return lhs, nil
		}
	}
}

// mul ::= unary (("*" | "/") unary)*
func (p *Parser) parseMul() (Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.consume("*"):
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Mul, Lhs: lhs, Rhs: rhs}
		case p.consume("/"):
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			lhs = BinaryNode{Kind: Div, Lhs: lhs, Rhs: rhs}
		default:
			return lhs, nil
		}
	}
}

// unary ::= "+" primary | "-" primary | primary
// `-x` desugars to Sub(Num(0), x); it is never a signed-literal node.
func (p *Parser) parseUnary() (Node, error) {
	switch {
	case p.consume("+"):
		return p.parsePrimary()
	case p.consume("-"):
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return BinaryNode{Kind: Sub, Lhs: NumNode{Val: 0}, Rhs: operand}, nil
	default:
		return p.parsePrimary()
	}
}

// primary ::= ident | number | "(" expr ")"
func (p *Parser) parsePrimary() (Node, error) {
	if p.consume("(") {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	if ident, ok := p.consumeIdent(); ok {
		return p.resolveLocal(ident.Lexeme), nil
	}

	value, err := p.expectNumber()
	if err != nil {
		return nil, err
	}
	return NumNode{Val: value}, nil
}
