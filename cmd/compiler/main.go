package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"
	"tinyrv.dev/compiler/pkg/clang"
	"tinyrv.dev/compiler/pkg/lexer"
)

var Description = strings.ReplaceAll(`
The tinyrv compiler takes a program written in the tiny C-like source
language and translates it into RISC-V assembly text. The process involves
tokenizing the source, parsing it into an AST and generating a stack-machine
style assembly program from it.
`, "\n", " ")

var Compiler = cli.New(Description).
	WithArg(cli.NewArg("input", "The source (.c) file to be compiled")).
	WithArg(cli.NewArg("output", "The generated assembly (.s) output")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) != 2 {
		fmt.Printf("ERROR: expected exactly 2 arguments, got %d\n", len(args))
		return -1
	}

	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	tokens, err := lexer.Tokenize(string(input))
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lexing' pass: %s\n", err)
		return -1
	}

	parser := clang.NewParser(tokens)
	program, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	var out bytes.Buffer
	if err := clang.Generate(program, parser.FrameSize(), &out); err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	output, err := os.Create(args[1])
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	if _, err := output.Write(out.Bytes()); err != nil {
		fmt.Printf("ERROR: Unable to write output file: %s\n", err)
		return -1
	}

	return 0
}

func main() { os.Exit(Compiler.Run(os.Args, os.Stdout)) }
