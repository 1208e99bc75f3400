package commands

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewMatchCmd(t *testing.T) {
	cmd := NewMatchCmd()

	if !strings.HasPrefix(cmd.Use, "match") {
		t.Errorf("Use = %q, want match prefix", cmd.Use)
	}
	if cmd.RunE == nil {
		t.Error("RunE should be set")
	}

	for _, name := range []string{"module", "scheme-ref", "context"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

func TestMatchCmd_Text(t *testing.T) {
	path := writeModule(t)

	out, err := execute(t, "match", "--module", path, "Week 1: 2.1 describing sets")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{
		"2.1 Describing sets",
		"score 1.000",
		"List elements of a set",
		"Official Module Unit 2.1, Page 15",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMatchCmd_FallsBackToLaterQuery(t *testing.T) {
	path := writeModule(t)

	out, err := execute(t, "match", "--module", path, "Trigonometry", "Venn diagrams")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Official Module Unit 2.2, Page 18") {
		t.Errorf("output = %s", out)
	}
}

func TestMatchCmd_NoMatchUsesSchemeReference(t *testing.T) {
	path := writeModule(t)

	out, err := execute(t, "match", "--module", path, "--scheme-ref", "Pupil's Book p.40", "Trigonometry")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Found:") || !strings.Contains(out, "no") {
		t.Errorf("output should report no match:\n%s", out)
	}
	if !strings.Contains(out, "Pupil's Book p.40") {
		t.Errorf("output should cite the scheme reference:\n%s", out)
	}
}

func TestMatchCmd_JSON(t *testing.T) {
	path := writeModule(t)

	tests := []struct {
		name        string
		args        []string
		wantContext bool
	}{
		{"without context", nil, false},
		{"with context", []string{"--context"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"match", "--module", path, "--format", "json"}, tt.args...)
			out, err := execute(t, append(args, "2.1")...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			var got map[string]any
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out)
			}
			if got["module"] != "zambia_grade8_mathematics" {
				t.Errorf("module = %v", got["module"])
			}
			if got["found"] != true || got["subtopic_id"] != "2.1" {
				t.Errorf("result = %v", got)
			}
			if _, ok := got["context_text"]; ok != tt.wantContext {
				t.Errorf("context_text present = %v, want %v", ok, tt.wantContext)
			}
		})
	}
}

func TestMatchCmd_Errors(t *testing.T) {
	path := writeModule(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing module flag", []string{"match", "2.1"}},
		{"missing query", []string{"match", "--module", path}},
		{"unreadable module", []string{"match", "--module", path + ".missing", "2.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("Execute() should fail")
			}
		})
	}
}
