package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"
	"tinyrv.dev/compiler/pkg/asm"
)

var Description = strings.ReplaceAll(`
The tinyrv assembler takes RISC-V assembly text and translates it into a
flat RV32IM machine-code binary. The process involves tokenizing the
assembly text, resolving labels to PC-relative byte offsets and encoding
each instruction to its 32-bit big-endian word. The output is always
written to out.bin in the current working directory.
`, "\n", " ")

var Assembler = cli.New(Description).
	WithArg(cli.NewArg("input", "The assembly (.s) file to be assembled")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) != 1 {
		fmt.Printf("ERROR: expected exactly 1 argument, got %d\n", len(args))
		return -1
	}

	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	parser := asm.NewParser(strings.NewReader(string(input)))
	program, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	lowerer := asm.NewLowerer(program)
	resolved, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}

	output, err := os.Create("out.bin")
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	codegen := asm.NewCodeGenerator(resolved)
	if err := codegen.Generate(output); err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	return 0
}

func main() { os.Exit(Assembler.Run(os.Args, os.Stdout)) }
