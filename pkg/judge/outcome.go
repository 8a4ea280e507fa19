package judge

import "strings"

// OutcomeKind classifies the terminal result of one code execution.
type OutcomeKind int

const (
	// OutcomeSuccess means the program ran to completion; stdout is available
	// for comparison. The judge's own answer verdicts are ignored; grading
	// happens on our side.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeCompileError means the code failed to compile.
	OutcomeCompileError
	// OutcomeRuntimeError means the program crashed; Cause carries a
	// human-readable diagnosis derived from stderr.
	OutcomeRuntimeError
	// OutcomeTimeLimit means the sandbox stopped the program for exceeding
	// its CPU time limit.
	OutcomeTimeLimit
	// OutcomeMemoryLimit means the sandbox stopped the program for exceeding
	// its memory limit.
	OutcomeMemoryLimit
	// OutcomeKilled means the sandbox terminated the process, typically a
	// resource-limit kill distinct from time or memory limits.
	OutcomeKilled
)

// Outcome is the normalized result of one execution. It is the only shape
// the rest of the system sees; raw judge status codes never leave this package.
type Outcome struct {
	Kind    OutcomeKind
	Stdout  string
	Stderr  string
	Cause   string
	TimeSec float64
	Memory  int
}

// Failed reports whether the execution ended in anything but a clean run.
func (o Outcome) Failed() bool {
	return o.Kind != OutcomeSuccess
}

// Diagnostic returns the human-readable failure description for the outcome.
func (o Outcome) Diagnostic() string {
	switch o.Kind {
	case OutcomeCompileError:
		if o.Cause != "" {
			return "Compilation Error: " + o.Cause
		}
		return "Compilation Error"
	case OutcomeTimeLimit:
		return "Time Limit Exceeded"
	case OutcomeMemoryLimit:
		return "Memory Limit Exceeded"
	case OutcomeKilled:
		return "Process Killed - The program was terminated by the sandbox, possibly due to resource limits"
	case OutcomeRuntimeError:
		if o.Cause != "" {
			return o.Cause
		}
		return "Runtime error"
	default:
		return ""
	}
}

// Judge0 status identifiers. Anything above processing is terminal;
// identifiers at or above compilationError are failures.
const (
	statusInQueue          = 1
	statusProcessing       = 2
	statusCompilationError = 6
	statusTimeLimit        = 7
	statusMemoryLimit      = 8
	statusKilled           = 11
)

func isTerminalStatus(id int) bool {
	return id != statusInQueue && id != statusProcessing
}

// decodeOutcome translates one raw judge response into an Outcome.
func decodeOutcome(resp submissionResponse) Outcome {
	outcome := Outcome{
		Stdout:  resp.Stdout,
		Stderr:  resp.Stderr,
		TimeSec: resp.timeSeconds(),
		Memory:  resp.Memory,
	}

	switch {
	case resp.Status.ID < statusCompilationError:
		outcome.Kind = OutcomeSuccess
	case resp.Status.ID == statusCompilationError:
		outcome.Kind = OutcomeCompileError
		outcome.Cause = firstNonEmpty(strings.TrimSpace(resp.CompileOutput), strings.TrimSpace(resp.Stderr), "Compilation error")
	case resp.Status.ID == statusTimeLimit:
		outcome.Kind = OutcomeTimeLimit
	case resp.Status.ID == statusMemoryLimit:
		outcome.Kind = OutcomeMemoryLimit
	case resp.Status.ID == statusKilled || killedByStderr(resp):
		outcome.Kind = OutcomeKilled
	default:
		outcome.Kind = OutcomeRuntimeError
		outcome.Cause = runtimeCause(resp)
	}

	return outcome
}

func killedByStderr(resp submissionResponse) bool {
	return strings.Contains(resp.Stderr, "Killed") || strings.Contains(resp.Message, "Killed")
}

// runtimeCause maps common stderr patterns to readable diagnoses. Student
// programs fail in predictable ways; surfacing the reason beats echoing a
// raw signal name.
func runtimeCause(resp submissionResponse) string {
	stderr := resp.Stderr

	switch {
	case strings.Contains(stderr, "segmentation fault"), strings.Contains(stderr, "SIGSEGV"):
		return "Segmentation Fault - Invalid memory access"
	case strings.Contains(stderr, "division by zero"), strings.Contains(stderr, "ZeroDivisionError"):
		return "Runtime Error: Division by zero"
	case strings.Contains(stderr, "index out of range"), strings.Contains(stderr, "IndexError"):
		return "Runtime Error: Index out of bounds"
	case strings.Contains(stderr, "null pointer"), strings.Contains(stderr, "NullPointerException"):
		return "Runtime Error: Null pointer exception"
	case strings.Contains(stderr, "IndentationError"):
		return "Runtime Error: Python indentation error"
	case strings.Contains(stderr, "SyntaxError"):
		return "Runtime Error: Python syntax error"
	case strings.Contains(stderr, "NameError"):
		return "Runtime Error: Python undefined variable"
	case strings.Contains(stderr, "TypeError"):
		return "Runtime Error: Python type error"
	}

	if trimmed := strings.TrimSpace(stderr); trimmed != "" {
		return trimmed
	}
	if trimmed := strings.TrimSpace(resp.Message); trimmed != "" {
		return trimmed
	}
	return "Runtime error"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
