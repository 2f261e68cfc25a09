package safety

import (
	"time"

	"diskforge/internal/model"
)

// ExecutionPlan is the structured account of what an operation is about to
// do, returned to a caller so it can be rendered for review before anything
// destructive runs (§4.3): operation type, description, target, the ordered
// steps it will take, any warnings worth surfacing, how long it is expected
// to take, the preflight report, and — for anything other than READ_ONLY or
// CREATE — the confirmation token the operator must type back.
type ExecutionPlan struct {
	OperationType        model.OperationType `json:"operation_type"`
	Description          string              `json:"description"`
	Target               string              `json:"target"`
	Steps                []string            `json:"steps"`
	Warnings             []string            `json:"warnings,omitempty"`
	EstimatedDurationSec float64             `json:"estimated_duration_seconds,omitempty"`
	Preflight            PreflightReport     `json:"preflight"`
	ConfirmationToken    string              `json:"confirmation_token,omitempty"`
}

// requiresConfirmationToken reports whether an operation type must be
// confirmed by the exact per-target token before it runs: every type except
// READ_ONLY and CREATE. (The allow-list exempts only READ_ONLY; CREATE still
// needs danger mode but no token.)
func requiresConfirmationToken(op model.OperationType) bool {
	return op != model.OperationReadOnly && op != model.OperationCreate
}

// Plan runs g's registered preflight checks against preflightCtx and
// assembles the result into an ExecutionPlan, computing the confirmation
// token for operation types that need one. It does not run anything itself;
// callers decide what to do with a report that HasErrors().
func (g *Gate) Plan(opType model.OperationType, description, target string, steps, warnings []string, estimatedDuration time.Duration, preflightCtx PreflightContext) ExecutionPlan {
	plan := ExecutionPlan{
		OperationType:        opType,
		Description:          description,
		Target:               target,
		Steps:                steps,
		Warnings:             warnings,
		EstimatedDurationSec: estimatedDuration.Seconds(),
		Preflight:            g.checker.RunChecks(preflightCtx),
	}
	if requiresConfirmationToken(opType) {
		plan.ConfirmationToken = GenerateConfirmationString(target)
	}
	return plan
}
