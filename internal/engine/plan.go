package engine

import "codeowners/internal/model"

// EvalPlan lists the paths of a change that require code owner approval,
// in deterministic order and without duplicates.
type EvalPlan struct {
	Paths []string
}

// PlanChange derives the evaluation plan from the changed files: the new
// path for additions and modifications, the old path for deletions and
// both paths for renames.
func PlanChange(change model.Change) *EvalPlan {
	plan := &EvalPlan{}
	seen := make(map[string]struct{})
	for _, file := range change.Files {
		for _, p := range file.Paths() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			plan.Paths = append(plan.Paths, p)
		}
	}
	return plan
}
