package navpack

import (
	"strconv"
	"strings"
)

var sentinelWaypoints = map[string]bool{
	"current": true,
	"here":    true,
	"me":      true,
}

var allowedLanguages = map[string]bool{
	"ja": true,
	"en": true,
	"zh": true,
}

// ValidationIssue is a single rejected field, collected so the façade can
// report every problem at once rather than one round-trip per fix.
type ValidationIssue struct {
	Field   string
	Message string
}

// Normalize applies the §3 PlanRequest defaults (return_to_origin defaults
// true, buffer defaults to DefaultBuffer) without mutating the zero-value
// ambiguity a plain JSON bool/float would otherwise introduce; callers must
// pass the raw decoded struct plus whether each defaultable field was
// present in the request body.
func (r *PlanRequest) Normalize(returnToOriginSet, carMSet, footMSet bool) {
	if !returnToOriginSet {
		r.ReturnToOrigin = true
	}
	if !carMSet {
		r.Buffer.CarM = DefaultBuffer().CarM
	}
	if !footMSet {
		r.Buffer.FootM = DefaultBuffer().FootM
	}
}

// Validate checks the §3 PlanRequest invariants that apply before any spot
// is resolved: language is one of the supported set, at least one waypoint
// is present, and no waypoint is a "current position" sentinel (those are
// rejected at this boundary rather than passed to the spot resolver).
func Validate(r PlanRequest) []ValidationIssue {
	var issues []ValidationIssue

	lang := strings.ToLower(strings.TrimSpace(r.Language))
	if lang == "" || !allowedLanguages[lang] {
		issues = append(issues, ValidationIssue{Field: "language", Message: "language must be one of ja, en, zh"})
	}

	if len(r.Waypoints) == 0 {
		issues = append(issues, ValidationIssue{Field: "waypoints", Message: "waypoints must contain at least one entry"})
	}
	for i, wp := range r.Waypoints {
		id := strings.ToLower(strings.TrimSpace(wp))
		if wp == "" {
			issues = append(issues, ValidationIssue{Field: "waypoints", Message: "waypoint id must not be empty"})
			continue
		}
		if sentinelWaypoints[id] {
			issues = append(issues, ValidationIssue{
				Field:   "waypoints",
				Message: "waypoint " + wp + " at index " + strconv.Itoa(i) + " is a current-position sentinel and must be resolved client-side before submission",
			})
		}
	}

	return issues
}
