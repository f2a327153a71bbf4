// Package policy evaluates review gates over scan results. Gates are
// CEL expressions so teams can encode their own risk appetite, for
// example rejecting anything with a critical install hook while
// auto-approving clean scans, without recompiling the auditor.
package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/NOMARJ/sigil/finding"
)

// Decision is a gate engine's recommendation for a scanned artifact.
type Decision string

const (
	// DecisionApprove recommends releasing the artifact from quarantine.
	DecisionApprove Decision = "approve"

	// DecisionReject recommends rejecting the artifact and purging its
	// staged files.
	DecisionReject Decision = "reject"

	// DecisionHold leaves the artifact pending for human review.
	DecisionHold Decision = "hold"
)

// Default gate expressions applied when no policy is configured.
const (
	DefaultRejectExpression  = `verdict == "critical" || counts["critical"] > 0`
	DefaultApproveExpression = `verdict == "clean"`
)

// Gate is a compiled boolean CEL expression over a scan outcome.
//
// Expressions see these variables:
//
//	score          risk score (int)
//	verdict        verdict wire name (string)
//	files_scanned  files covered by the scan (int)
//	finding_count  total findings (int)
//	counts         findings per severity name (map[string]int)
//	phases         findings per phase name (map[string]int)
type Gate struct {
	name    string
	expr    string
	program cel.Program
}

// Compile builds a Gate from expression. The expression must evaluate
// to a boolean.
func Compile(name, expression string) (*Gate, error) {
	env, err := cel.NewEnv(
		cel.Variable("score", cel.IntType),
		cel.Variable("verdict", cel.StringType),
		cel.Variable("files_scanned", cel.IntType),
		cel.Variable("finding_count", cel.IntType),
		cel.Variable("counts", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("phases", cel.MapType(cel.StringType, cel.IntType)),
	)
	if err != nil {
		return nil, fmt.Errorf("policy: create environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("policy: compile gate %q: %w", name, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("policy: gate %q must evaluate to bool, got %s", name, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("policy: build gate %q: %w", name, err)
	}
	return &Gate{name: name, expr: expression, program: program}, nil
}

// Name returns the gate's configured name.
func (g *Gate) Name() string {
	return g.name
}

// Expression returns the gate's source expression.
func (g *Gate) Expression() string {
	return g.expr
}

// Evaluate runs the gate against a scan result.
func (g *Gate) Evaluate(result finding.ScanResult) (bool, error) {
	out, _, err := g.program.Eval(activation(result))
	if err != nil {
		return false, fmt.Errorf("policy: evaluate gate %q: %w", g.name, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy: gate %q returned %T, want bool", g.name, out.Value())
	}
	return matched, nil
}

// activation binds the scan result to the gate variables. Every
// severity and phase key is present, zero-valued when absent, so
// expressions can index without guarding against missing keys.
func activation(result finding.ScanResult) map[string]any {
	counts := make(map[string]int, 4)
	for _, severity := range finding.AllSeverities() {
		counts[severity.String()] = 0
	}
	for severity, n := range result.SeverityCounts() {
		counts[severity.String()] = n
	}
	phases := make(map[string]int, 6)
	for _, phase := range finding.AllPhases() {
		phases[phase.String()] = 0
	}
	for phase, fs := range result.ByPhase() {
		phases[phase.String()] = len(fs)
	}
	return map[string]any{
		"score":         result.Score,
		"verdict":       result.Verdict.String(),
		"files_scanned": result.FilesScanned,
		"finding_count": len(result.Findings),
		"counts":        counts,
		"phases":        phases,
	}
}

// Engine orders a reject gate ahead of an approve gate; anything
// matching neither is held for human review.
type Engine struct {
	reject  *Gate
	approve *Gate
}

// NewEngine builds an Engine from reject and approve expressions. Empty
// expressions fall back to the package defaults.
func NewEngine(rejectExpr, approveExpr string) (*Engine, error) {
	if rejectExpr == "" {
		rejectExpr = DefaultRejectExpression
	}
	if approveExpr == "" {
		approveExpr = DefaultApproveExpression
	}

	reject, err := Compile("reject", rejectExpr)
	if err != nil {
		return nil, err
	}
	approve, err := Compile("approve", approveExpr)
	if err != nil {
		return nil, err
	}
	return &Engine{reject: reject, approve: approve}, nil
}

// Decide evaluates the gates against result. Reject wins over approve
// when both match.
func (e *Engine) Decide(result finding.ScanResult) (Decision, error) {
	matched, err := e.reject.Evaluate(result)
	if err != nil {
		return DecisionHold, err
	}
	if matched {
		return DecisionReject, nil
	}

	matched, err = e.approve.Evaluate(result)
	if err != nil {
		return DecisionHold, err
	}
	if matched {
		return DecisionApprove, nil
	}
	return DecisionHold, nil
}
