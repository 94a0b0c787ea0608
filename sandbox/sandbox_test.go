package sandbox

import (
	"fmt"
	"strings"
	"testing"

	"go.starlark.net/starlark"

	"github.com/richinex/daedalus/model"
	"github.com/richinex/daedalus/storage"
)

func newTestSandbox(t *testing.T, cfg Config) *Sandbox {
	t.Helper()
	sb, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create sandbox: %v", err)
	}
	return sb
}

func TestExecutePrintCapture(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("data")})

	output, success := sb.Execute(`print("hello")`)
	if !success {
		t.Fatalf("expected success, got output %q", output)
	}
	if output != "hello\n" {
		t.Errorf("expected 'hello\\n', got %q", output)
	}
}

func TestExecuteNamespacePersistence(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	if _, success := sb.Execute(`x = 41`); !success {
		t.Fatal("first execution failed")
	}
	output, success := sb.Execute(`print(x + 1)`)
	if !success {
		t.Fatalf("second execution failed: %q", output)
	}
	if output != "42\n" {
		t.Errorf("expected '42\\n', got %q", output)
	}
}

func TestExecuteGlobalReassignment(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	sb.Execute(`counter = 1`)
	sb.Execute(`counter = counter + 1`)
	output, success := sb.Execute(`print(counter)`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if output != "2\n" {
		t.Errorf("expected '2\\n', got %q", output)
	}
}

func TestExecuteContextString(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("the quick brown fox")})

	output, success := sb.Execute(`print(context[:9])`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if output != "the quick\n" {
		t.Errorf("expected 'the quick\\n', got %q", output)
	}
}

func TestExecuteContextList(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.ListContext([]string{"a", "b", "c"})})

	output, success := sb.Execute(`print(len(context), context[1])`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if output != "3 b\n" {
		t.Errorf("expected '3 b\\n', got %q", output)
	}
}

func TestExecuteContextMap(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.MapContext(map[string]string{"title": "report"})})

	output, success := sb.Execute(`print(context["title"])`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if output != "report\n" {
		t.Errorf("expected 'report\\n', got %q", output)
	}
}

func TestExecuteRuntimeError(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	output, success := sb.Execute(`x = 1 // 0`)
	if success {
		t.Fatal("expected failure for division by zero")
	}
	if !strings.HasPrefix(output, "Error: EvalError: ") {
		t.Errorf("expected EvalError prefix, got %q", output)
	}
}

func TestExecuteSyntaxError(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	output, success := sb.Execute(`def broken(`)
	if success {
		t.Fatal("expected failure for syntax error")
	}
	if !strings.Contains(output, "Error:") {
		t.Errorf("expected error text, got %q", output)
	}
}

func TestExecuteErrorKeepsPriorOutput(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	output, success := sb.Execute("print(\"before\")\nfail(\"boom\")")
	if success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(output, "before\n") {
		t.Errorf("expected output printed before the error to survive, got %q", output)
	}
	if !strings.Contains(output, "Error: EvalError: ") {
		t.Errorf("expected error appended, got %q", output)
	}
}

func TestExecuteErrorKeepsBindings(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	sb.Execute("y = 7\nfail(\"boom\")")
	if !sb.HasVariable("y") {
		t.Error("expected binding made before the failure to be kept")
	}
}

func TestExecuteTruncation(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext(""), MaxOutputLength: 50})

	output, success := sb.Execute(`print("x" * 200)`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if !strings.Contains(output, "[Output truncated. Showing first 50 characters of 201 total]") {
		t.Errorf("expected truncation marker, got %q", output)
	}
	if !strings.HasPrefix(output, strings.Repeat("x", 50)) {
		t.Errorf("expected first 50 characters preserved, got %q", output)
	}
}

func TestHasVariable(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	if sb.HasVariable("answer") {
		t.Error("did not expect 'answer' before execution")
	}
	sb.Execute(`answer = "42"`)
	if !sb.HasVariable("answer") {
		t.Error("expected 'answer' after execution")
	}
	if !sb.HasVariable("context") {
		t.Error("expected the seeded 'context' variable")
	}
}

func TestGetVariableDistinguishesNone(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})
	sb.Execute(`nothing = None`)

	v, ok := sb.GetVariable("nothing")
	if !ok {
		t.Fatal("expected a bound None to be found")
	}
	if v != starlark.None {
		t.Errorf("expected None, got %v", v)
	}

	if _, ok := sb.GetVariable("never_bound"); ok {
		t.Error("did not expect an unbound name to be found")
	}
}

func TestFormatValue(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})
	sb.Execute("s = \"plain\"\nn = 42\nl = [1, 2]")

	cases := []struct {
		name string
		want string
	}{
		{"s", "plain"},
		{"n", "42"},
		{"l", "[1, 2]"},
	}
	for _, tc := range cases {
		v, ok := sb.GetVariable(tc.name)
		if !ok {
			t.Fatalf("variable %q not found", tc.name)
		}
		if got := FormatValue(v); got != tc.want {
			t.Errorf("FormatValue(%s): expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestLLMQueryBuiltin(t *testing.T) {
	sb := newTestSandbox(t, Config{
		Context: model.TextContext(""),
		LLMQuery: func(prompt string) (string, error) {
			return "answer to: " + prompt, nil
		},
	})

	output, success := sb.Execute(`print(llm_query("what?"))`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if output != "answer to: what?\n" {
		t.Errorf("unexpected output %q", output)
	}
}

func TestLLMQueryProviderFailure(t *testing.T) {
	sb := newTestSandbox(t, Config{
		Context: model.TextContext(""),
		LLMQuery: func(prompt string) (string, error) {
			return "", fmt.Errorf("provider unavailable")
		},
	})

	output, success := sb.Execute(`llm_query("what?")`)
	if success {
		t.Fatal("expected failure when the provider errors")
	}
	if !strings.Contains(output, "provider unavailable") {
		t.Errorf("expected provider error in output, got %q", output)
	}
}

func TestLLMQueryOmittedWhenNil(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	output, success := sb.Execute(`llm_query("what?")`)
	if success {
		t.Fatal("expected undefined llm_query without an injected callable")
	}
	if !strings.Contains(output, "llm_query") {
		t.Errorf("expected the undefined name in the error, got %q", output)
	}
}

func TestParallelQueryBuiltin(t *testing.T) {
	sb := newTestSandbox(t, Config{
		Context: model.TextContext(""),
		ParallelQuery: func(template string, chunks []string) ([]string, error) {
			results := make([]string, len(chunks))
			for i, c := range chunks {
				results[i] = strings.ReplaceAll(template, "{chunk}", c)
			}
			return results, nil
		},
	})

	output, success := sb.Execute(`print(parallel_query("Echo: {chunk}", ["a", "b"]))`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if output != "[\"Echo: a\", \"Echo: b\"]\n" {
		t.Errorf("unexpected output %q", output)
	}
}

func TestParallelQueryNonIterable(t *testing.T) {
	sb := newTestSandbox(t, Config{
		Context: model.TextContext(""),
		ParallelQuery: func(template string, chunks []string) ([]string, error) {
			return nil, nil
		},
	})

	output, success := sb.Execute(`parallel_query("t", 42)`)
	if success {
		t.Fatal("expected failure for a non-iterable chunks argument")
	}
	if !strings.Contains(output, "iterable") {
		t.Errorf("expected iterable complaint, got %q", output)
	}
}

func TestHiveBuiltin(t *testing.T) {
	hive := storage.NewHive()
	sb := newTestSandbox(t, Config{Context: model.TextContext(""), Hive: hive})

	output, success := sb.Execute(`
hive.set("suspect", "butler")
print(hive.get("suspect"))
print(hive.get("missing", "default"))
`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if output != "butler\ndefault\n" {
		t.Errorf("unexpected output %q", output)
	}

	if got := hive.Get("suspect", nil); got != "butler" {
		t.Errorf("expected hive write to reach the store, got %v", got)
	}
}

func TestHiveGetAllAndClear(t *testing.T) {
	hive := storage.NewHive()
	hive.Set("pre", "seeded")
	sb := newTestSandbox(t, Config{Context: model.TextContext(""), Hive: hive})

	output, success := sb.Execute(`
all = hive.get_all()
print(all["pre"])
hive.clear()
`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if output != "seeded\n" {
		t.Errorf("unexpected output %q", output)
	}
	if hive.Len() != 0 {
		t.Errorf("expected cleared hive, got %d entries", hive.Len())
	}
}

func TestWhileAndTopLevelControl(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	output, success := sb.Execute(`
total = 0
i = 0
while i < 5:
    total += i
    i += 1
print(total)
`)
	if !success {
		t.Fatalf("execution failed: %q", output)
	}
	if output != "10\n" {
		t.Errorf("expected '10\\n', got %q", output)
	}
}

func TestFunctionsPersistAcrossExecutions(t *testing.T) {
	sb := newTestSandbox(t, Config{Context: model.TextContext("")})

	if out, ok := sb.Execute("def double(n):\n    return n * 2"); !ok {
		t.Fatalf("definition failed: %q", out)
	}
	output, success := sb.Execute(`print(double(21))`)
	if !success {
		t.Fatalf("call failed: %q", output)
	}
	if output != "42\n" {
		t.Errorf("expected '42\\n', got %q", output)
	}
}
