package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nrkt/minicc/pkg/arch"
	"github.com/nrkt/minicc/pkg/cabs"
	"github.com/nrkt/minicc/pkg/ir"
	"github.com/nrkt/minicc/pkg/irvalidate"
	"github.com/nrkt/minicc/pkg/lexer"
	"github.com/nrkt/minicc/pkg/parser"
	"github.com/nrkt/minicc/pkg/sema"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Debug flags for dumping intermediate representations
var (
	dParse bool
	dIR    bool
	dOptim bool // reserved for a future optimization pass
)

// debugFlagInfo holds metadata for a debug flag
type debugFlagInfo struct {
	flag *bool
	desc string
}

// debugFlags maps flag names to descriptions for unimplemented warnings.
// dparse and dir are handled separately as they're implemented.
var debugFlags = map[string]debugFlagInfo{
	"doptim": {&dOptim, "dump the module after optimization passes"},
}

// ErrNotImplemented indicates a feature is not yet implemented
var ErrNotImplemented = errors.New("not yet implemented")

// checkDebugFlags checks if any unimplemented debug flags are set and returns an error
func checkDebugFlags(w io.Writer) error {
	for name, info := range debugFlags {
		if *info.flag {
			fmt.Fprintf(w, "minicc: warning: -%s (%s) is not yet implemented\n", name, info.desc)
			return ErrNotImplemented
		}
	}
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Normalize CompCert-style single-dash flags to double-dash for pflag compatibility
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists all debug flags that should accept single-dash style (CompCert compatibility)
var debugFlagNames = []string{"dparse", "dir", "doptim"}

// normalizeFlags converts CompCert-style single-dash flags like -dparse to --dparse
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minicc [file]",
		Short: "minicc is a C99 semantic analysis and IR lowering frontend",
		Long: `minicc parses a single C99 translation unit, resolves it against
an architecture descriptor, and lowers it to a three-address
intermediate representation, reporting every semantic error it
finds along the way rather than stopping at the first one.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkDebugFlags(errOut); err != nil {
				return err
			}

			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			filename := args[0]

			if dParse {
				return doParse(filename, out, errOut)
			}
			if dIR {
				return doIR(filename, out, errOut)
			}

			return doCompile(filename, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVarP(&dParse, "dparse", "", false, "Dump the AST after parsing")
	rootCmd.Flags().BoolVarP(&dIR, "dir", "", false, "Dump the IR module after lowering")
	rootCmd.Flags().BoolVarP(&dOptim, "doptim", "", false, "Dump the module after optimization passes")

	return rootCmd
}

// parseFile reads and parses a C file, returning its AST.
func parseFile(filename string, errOut io.Writer) (*cabs.Program, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "minicc: error reading %s: %v\n", filename, err)
		return nil, err
	}

	l := lexer.New(string(content))
	p := parser.New(l, filename)
	program := p.ParseProgram()

	if len(p.Errors()) > 0 {
		for _, e := range p.Errors() {
			fmt.Fprintf(errOut, "%s: %s\n", filename, e)
		}
		return nil, fmt.Errorf("parsing failed with %d errors", len(p.Errors()))
	}
	return program, nil
}

// doParse parses the file and writes the AST to a .parsed.c file (matching
// the CompCert -dparse convention this CLI's flag layout is modeled on).
func doParse(filename string, out, errOut io.Writer) error {
	program, err := parseFile(filename, errOut)
	if err != nil {
		return err
	}

	outputFilename := parsedOutputFilename(filename)
	outFile, err := os.Create(outputFilename)
	if err != nil {
		fmt.Fprintf(errOut, "minicc: error creating %s: %v\n", outputFilename, err)
		return err
	}
	defer outFile.Close()

	printer := cabs.NewPrinter(outFile)
	printer.PrintProgram(program)

	printer = cabs.NewPrinter(out)
	printer.PrintProgram(program)

	return nil
}

// parsedOutputFilename returns the output filename for -dparse:
// input.c -> input.parsed.c
func parsedOutputFilename(filename string) string {
	ext := ".c"
	if strings.HasSuffix(filename, ext) {
		return filename[:len(filename)-len(ext)] + ".parsed.c"
	}
	return filename + ".parsed.c"
}

// lowerFile parses and lowers filename against the LP64 architecture
// descriptor, printing any accumulated diagnostics to errOut. Returns the
// module and true on success, or nil and false if parsing failed, any
// diagnostic was reported, or the lowered IR failed validation.
func lowerFile(filename string, errOut io.Writer) (*ir.Module, bool) {
	program, err := parseFile(filename, errOut)
	if err != nil {
		return nil, false
	}

	moduleName := moduleNameFor(filename)
	mod, errs := sema.Lower(program, arch.LP64(), moduleName)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(errOut, "%s\n", e.Error())
		}
		return nil, false
	}

	if err := irvalidate.Validate(mod); err != nil {
		fmt.Fprintf(errOut, "minicc: internal error: invalid IR produced for %s: %v\n", filename, err)
		return nil, false
	}

	return mod, true
}

// moduleNameFor derives a module name from a source filename: input.c -> input
func moduleNameFor(filename string) string {
	base := filename
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	if strings.HasSuffix(base, ".c") {
		base = base[:len(base)-len(".c")]
	}
	return base
}

// doIR lowers the file and writes the resulting module to a .ir file.
func doIR(filename string, out, errOut io.Writer) error {
	mod, ok := lowerFile(filename, errOut)
	if !ok {
		return fmt.Errorf("lowering failed for %s", filename)
	}

	outputFilename := irOutputFilename(filename)
	outFile, err := os.Create(outputFilename)
	if err != nil {
		fmt.Fprintf(errOut, "minicc: error creating %s: %v\n", outputFilename, err)
		return err
	}
	defer outFile.Close()

	printer := ir.NewPrinter(outFile)
	printer.PrintModule(mod)

	printer = ir.NewPrinter(out)
	printer.PrintModule(mod)

	return nil
}

// irOutputFilename returns the output filename for -dir: input.c -> input.ir
func irOutputFilename(filename string) string {
	ext := ".c"
	if strings.HasSuffix(filename, ext) {
		return filename[:len(filename)-len(ext)] + ".ir"
	}
	return filename + ".ir"
}

// doCompile runs the full parse-and-lower pipeline and reports success or
// failure without writing any intermediate dump.
func doCompile(filename string, out, errOut io.Writer) error {
	_, ok := lowerFile(filename, errOut)
	if !ok {
		return fmt.Errorf("compilation failed for %s", filename)
	}
	fmt.Fprintf(out, "minicc: %s: ok\n", filename)
	return nil
}
