package schema

import (
	"testing"

	"xdao.co/canbor/canbor"
)

func TestStrict_UnknownFieldRejected(t *testing.T) {
	// {"age": 1, "name": "x", "nick": "y"}: profile has no "nick".
	data := mustHex(t, "a36361676501646e616d656178646e69636b6179")

	var out profile
	err := Unmarshal(data, &out)
	if !canbor.IsKind(err, canbor.KindUnknownField) {
		t.Fatalf("err = %v, want KindUnknownField", err)
	}
	if id := canbor.RuleID(err); id != "CANBOR-MAP-001" {
		t.Fatalf("RuleID = %s, want CANBOR-MAP-001", id)
	}
}

func TestStrict_AllowUnknownFieldsOptIn(t *testing.T) {
	data := mustHex(t, "a36361676501646e616d656178646e69636b6179")

	var out profile
	if err := (DecOptions{AllowUnknownFields: true}).Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Name != "x" || out.Age != 1 {
		t.Fatalf("decoded %+v", out)
	}
}

func TestStrict_MissingRequiredField(t *testing.T) {
	// {"age": 36}: "name" is required.
	var out profile
	err := Unmarshal(mustHex(t, "a1636167651824"), &out)
	if !canbor.IsKind(err, canbor.KindMissingRequiredField) {
		t.Fatalf("err = %v, want KindMissingRequiredField", err)
	}
	if id := canbor.RuleID(err); id != "CANBOR-MAP-002" {
		t.Fatalf("RuleID = %s, want CANBOR-MAP-002", id)
	}
}

func TestStrict_NonCanonicalInputRejected(t *testing.T) {
	// Keys out of canonical order never reach the mapping layer.
	var out map[string]int
	err := Unmarshal(mustHex(t, "a2616202616101"), &out)
	if !canbor.IsKind(err, canbor.KindNonCanonical) {
		t.Fatalf("err = %v, want KindNonCanonical", err)
	}
}

func TestStrict_TrailingBytesRejected(t *testing.T) {
	var out any
	err := Unmarshal(mustHex(t, "f6f6"), &out)
	if !canbor.IsKind(err, canbor.KindTrailingBytes) {
		t.Fatalf("err = %v, want KindTrailingBytes", err)
	}
}

func TestStrict_MaxDepthForwarded(t *testing.T) {
	var out any
	err := DecOptions{MaxDepth: 1}.Unmarshal(mustHex(t, "818101"), &out)
	if !canbor.IsKind(err, canbor.KindDepthExceeded) {
		t.Fatalf("err = %v, want KindDepthExceeded", err)
	}
	if err := (DecOptions{MaxDepth: 3}).Unmarshal(mustHex(t, "818101"), &out); err != nil {
		t.Fatalf("depth 3: %v", err)
	}
}
