package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RequiredApproval is a (label, minimum value) pair. It is used both for
// the required code-owner approval and for override approvals.
type RequiredApproval struct {
	Label string
	Value int
}

// ParseRequiredApproval parses the "<label>+<value>" syntax, e.g.
// "Code-Review+2".
func ParseRequiredApproval(s string) (RequiredApproval, error) {
	label, value, ok := strings.Cut(strings.TrimSpace(s), "+")
	if !ok || label == "" {
		return RequiredApproval{}, fmt.Errorf("invalid required approval %q: expected <label>+<value>", s)
	}
	v, err := strconv.Atoi(value)
	if err != nil || v < 1 {
		return RequiredApproval{}, fmt.Errorf("invalid required approval %q: value must be a positive integer", s)
	}
	return RequiredApproval{Label: label, Value: v}, nil
}

func (a RequiredApproval) String() string {
	return fmt.Sprintf("%s+%d", a.Label, a.Value)
}

// SortRequiredApprovals orders approvals by ascending value, then label.
// For override approvals the lowest configured threshold wins, so it must
// be evaluated first.
func SortRequiredApprovals(approvals []RequiredApproval) {
	sort.Slice(approvals, func(i, j int) bool {
		if approvals[i].Value != approvals[j].Value {
			return approvals[i].Value < approvals[j].Value
		}
		return approvals[i].Label < approvals[j].Label
	})
}
