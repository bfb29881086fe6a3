package navpack

import "testing"

func TestValidateRejectsEmptyLanguage(t *testing.T) {
	req := PlanRequest{Waypoints: []string{"spot-1"}}
	issues := Validate(req)
	if !hasField(issues, "language") {
		t.Fatalf("Validate: expected a language issue, got %+v", issues)
	}
}

func TestValidateRejectsUnsupportedLanguage(t *testing.T) {
	req := PlanRequest{Language: "fr", Waypoints: []string{"spot-1"}}
	issues := Validate(req)
	if !hasField(issues, "language") {
		t.Fatalf("Validate: expected a language issue for unsupported language, got %+v", issues)
	}
}

func TestValidateRejectsEmptyWaypoints(t *testing.T) {
	req := PlanRequest{Language: "ja"}
	issues := Validate(req)
	if !hasField(issues, "waypoints") {
		t.Fatalf("Validate: expected a waypoints issue for empty list, got %+v", issues)
	}
}

func TestValidateRejectsCurrentPositionSentinels(t *testing.T) {
	for _, sentinel := range []string{"current", "here", "me", "CURRENT"} {
		req := PlanRequest{Language: "ja", Waypoints: []string{sentinel}}
		issues := Validate(req)
		if !hasField(issues, "waypoints") {
			t.Fatalf("Validate: expected %q to be rejected as a sentinel, got %+v", sentinel, issues)
		}
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	req := PlanRequest{Language: "ja", Waypoints: []string{"spot-1", "spot-2"}}
	issues := Validate(req)
	if len(issues) != 0 {
		t.Fatalf("Validate: got %+v, want no issues", issues)
	}
}

func TestNormalizeAppliesDefaultsOnlyWhenUnset(t *testing.T) {
	req := &PlanRequest{}
	req.Normalize(false, false, false)
	if req.ReturnToOrigin != true {
		t.Fatalf("Normalize: return_to_origin default not applied")
	}
	if req.Buffer.CarM != DefaultBuffer().CarM || req.Buffer.FootM != DefaultBuffer().FootM {
		t.Fatalf("Normalize: buffer defaults not applied, got %+v", req.Buffer)
	}
}

func TestNormalizeLeavesExplicitValuesAlone(t *testing.T) {
	req := &PlanRequest{ReturnToOrigin: false, Buffer: Buffer{CarM: 500, FootM: 20}}
	req.Normalize(true, true, true)
	if req.ReturnToOrigin != false {
		t.Fatalf("Normalize: explicit return_to_origin=false was overwritten")
	}
	if req.Buffer.CarM != 500 || req.Buffer.FootM != 20 {
		t.Fatalf("Normalize: explicit buffer was overwritten, got %+v", req.Buffer)
	}
}

func hasField(issues []ValidationIssue, field string) bool {
	for _, i := range issues {
		if i.Field == field {
			return true
		}
	}
	return false
}
