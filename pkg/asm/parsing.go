package asm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ----------------------------------------------------------------------------
// Parser

// Parser turns assembly text into a Program by hand-rolled line tokenization:
// no parser-combinator library is involved, since the assembly grammar is a
// flat, line-oriented format with no nesting to speak of. Each line produces
// at most one Line value.
type Parser struct{ reader io.Reader }

// NewParser returns a Parser reading from r.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parse reads the whole input and returns the resulting Program. Comment
// lines (leading '#', blank after trimming) are dropped entirely; they
// never occupy a Line slot, label or otherwise.
func (p *Parser) Parse() (Program, error) {
	program := Program{}

	scanner := bufio.NewScanner(p.reader)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if line == nil {
			continue // blank or comment-only line
		}
		program = append(program, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read from input: %w", err)
	}

	return program, nil
}

// ParseLine tokenizes one line of assembly text into a Line. It returns a
// nil Line (and nil error) for blank or comment-only lines.
func ParseLine(raw string) (Line, error) {
	text := raw
	if idx := strings.IndexByte(text, '#'); idx != -1 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	fields := splitFields(text)
	if len(fields) == 0 {
		return nil, nil
	}

	if strings.HasSuffix(fields[0], ":") && len(fields) == 1 {
		return Label{Name: strings.TrimSuffix(fields[0], ":")}, nil
	}

	mnemonic := fields[0]
	operands := make([]string, 0, len(fields)-1)
	for _, raw := range fields[1:] {
		operands = append(operands, parseOperand(raw)...)
	}

	return Instruction{Mnemonic: mnemonic, Operands: operands}, nil
}

// splitFields splits a line on whitespace, stripping trailing commas from
// every token; commas are an optional operand separator per the assembly
// file format and carry no meaning of their own.
func splitFields(text string) []string {
	rawFields := strings.Fields(text)
	fields := make([]string, 0, len(rawFields))
	for _, f := range rawFields {
		fields = append(fields, strings.TrimSuffix(f, ","))
	}
	return fields
}

// parseOperand expands a single operand token. A memory operand of the
// form "imm(reg)" splits on the first '(' into two operands, immediate
// then register, so that every downstream consumer sees a flat operand
// list regardless of addressing mode.
func parseOperand(tok string) []string {
	if idx := strings.IndexByte(tok, '('); idx != -1 && strings.HasSuffix(tok, ")") {
		imm := tok[:idx]
		reg := tok[idx+1 : len(tok)-1]
		if imm == "" {
			imm = "0"
		}
		return []string{imm, reg}
	}
	return []string{tok}
}
