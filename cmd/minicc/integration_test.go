package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// IntegrationTestSpec represents a single integration test case: a C
// translation unit, and whether it is expected to compile cleanly or to
// produce a specific semantic diagnostic.
type IntegrationTestSpec struct {
	Name       string `yaml:"name"`
	Input      string `yaml:"input"`
	ExpectOK   bool   `yaml:"expect_ok"`
	ExpectDiag string `yaml:"expect_diag,omitempty"`
	Skip       string `yaml:"skip,omitempty"`
}

// IntegrationTestFile represents the testdata/integration.yaml structure.
type IntegrationTestFile struct {
	Tests []IntegrationTestSpec `yaml:"tests"`
}

// TestIntegrationYAML drives the CLI end to end (no debug flags: the plain
// parse-lower-validate pipeline) over the fixtures in
// testdata/integration.yaml, checking that each compiles cleanly or fails
// with the diagnostic kind the fixture names.
func TestIntegrationYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/integration.yaml")
	if err != nil {
		t.Fatalf("integration.yaml not found: %v", err)
	}

	var testFile IntegrationTestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse integration.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			tmpDir := t.TempDir()
			testFile := filepath.Join(tmpDir, "test.c")
			if err := os.WriteFile(testFile, []byte(tc.Input), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			resetDebugFlags()
			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			cmd.SetArgs([]string{testFile})
			err := cmd.Execute()

			if tc.ExpectOK {
				if err != nil {
					t.Fatalf("expected compilation to succeed, got error: %v\nStderr: %s", err, errOut.String())
				}
				return
			}

			if err == nil {
				t.Fatalf("expected compilation to fail with %q, got success", tc.ExpectDiag)
			}
			if !strings.Contains(errOut.String(), tc.ExpectDiag) {
				t.Errorf("expected stderr to contain diagnostic %q\nGot:\n%s", tc.ExpectDiag, errOut.String())
			}
		})
	}
}

// TestIntegrationDParseBasic tests that -dparse prints recognizable C
// source for a range of constructs without needing a YAML fixture file.
func TestIntegrationDParseBasic(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "empty function",
			input:  "int main() {}",
			expect: []string{"int main()", "{", "}"},
		},
		{
			name:   "return zero",
			input:  "int f() { return 0; }",
			expect: []string{"int f()", "return 0;"},
		},
		{
			name:   "arithmetic",
			input:  "int f() { return 1 + 2 * 3; }",
			expect: []string{"int f()", "return", "+", "*"},
		},
		{
			name:   "function with params",
			input:  "int add(int a, int b) { return a + b; }",
			expect: []string{"int add(", "int a", "int b", "return", "+"},
		},
		{
			name:   "if statement",
			input:  "int f() { if (x) return 1; return 0; }",
			expect: []string{"if (", "return 1;", "return 0;"},
		},
		{
			name:   "while loop",
			input:  "int f() { while (x) x--; return 0; }",
			expect: []string{"while (", "--"},
		},
		{
			name:   "for loop",
			input:  "int f() { for (i = 0; i < 10; i++) x++; return 0; }",
			expect: []string{"for (", "< 10", "++"},
		},
		{
			name:   "struct definition",
			input:  "struct Point { int x; int y; };",
			expect: []string{"struct Point", "int x;", "int y;"},
		},
		{
			name:   "typedef",
			input:  "typedef int myint;",
			expect: []string{"typedef", "int", "myint"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			testFile := filepath.Join(tmpDir, "test.c")
			if err := os.WriteFile(testFile, []byte(tc.input), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			resetDebugFlags()
			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			cmd.SetArgs([]string{"--dparse", testFile})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("minicc failed: %v\nStderr: %s", err, errOut.String())
			}

			output := out.String()
			for _, exp := range tc.expect {
				if !strings.Contains(output, exp) {
					t.Errorf("expected output to contain %q\nGot:\n%s", exp, output)
				}
			}
		})
	}
}

// TestIntegrationDIRBasic checks that -dir lowers a small function to IR
// and that the flat instruction stream contains the expected opcodes.
func TestIntegrationDIRBasic(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "return a constant",
			input:  "int main() { return 42; }",
			expect: []string{"func main(", "ret"},
		},
		{
			name: "local variable and arithmetic",
			input: `int main() {
	int x = 1;
	int y = 2;
	return x + y;
}`,
			expect: []string{"alloca", "store", "load", "add", "ret"},
		},
		{
			name: "if/else branch",
			input: `int f(int x) {
	if (x) {
		return 1;
	} else {
		return 0;
	}
}`,
			expect: []string{"br_cond", "ret 1", "ret 0"},
		},
		{
			name: "while loop",
			input: `int f(int n) {
	int i = 0;
	while (i < n) {
		i = i + 1;
	}
	return i;
}`,
			expect: []string{"br_cond", "br l", "lt"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			testFile := filepath.Join(tmpDir, "test.c")
			if err := os.WriteFile(testFile, []byte(tc.input), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			resetDebugFlags()
			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			cmd.SetArgs([]string{"--dir", testFile})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("minicc failed: %v\nStderr: %s", err, errOut.String())
			}

			output := out.String()
			for _, exp := range tc.expect {
				if !strings.Contains(output, exp) {
					t.Errorf("expected output to contain %q\nGot:\n%s", exp, output)
				}
			}
		})
	}
}
