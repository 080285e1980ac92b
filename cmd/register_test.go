package cmd

import "testing"

func TestParseParamPairs(t *testing.T) {
	raw, err := parseParamPairs([]string{"n_samples=1000", "minimum=0.0", "note="})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("got %d pairs, want 3", len(raw))
	}
	if raw["n_samples"] != "1000" || raw["minimum"] != "0.0" || raw["note"] != "" {
		t.Errorf("unexpected values: %v", raw)
	}
}

func TestParseParamPairs_ValueKeepsEquals(t *testing.T) {
	// Only the first = splits; the value may contain more.
	raw, err := parseParamPairs([]string{"expr=a=b"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if raw["expr"] != "a=b" {
		t.Errorf("expr = %q, want %q", raw["expr"], "a=b")
	}
}

func TestParseParamPairs_Malformed(t *testing.T) {
	cases := [][]string{
		{"no-equals"},
		{"=value"},
		{"a=1", "a=2"},
	}
	for _, args := range cases {
		if _, err := parseParamPairs(args); err == nil {
			t.Errorf("parseParamPairs(%v) should fail", args)
		}
	}
}
