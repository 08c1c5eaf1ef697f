package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/dshills/promptscore/internal/evaluation"
)

func TestJSONWriter(t *testing.T) {
	report := &evaluation.Report{
		Tool:        "promptscore",
		Version:     "1.0",
		RunID:       "01J0000000000000000000000",
		Mode:        evaluation.PullRequest("base", "head"),
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Results:     []evaluation.ComparisonResult{sampleResult()},
	}

	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var decoded evaluation.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded.Mode != report.Mode {
		t.Errorf("Mode = %+v, want %+v", decoded.Mode, report.Mode)
	}
	if len(decoded.Results) != 1 || decoded.Results[0].PromptFile != "prompts/review.md" {
		t.Errorf("Results = %+v", decoded.Results)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("}\n")) {
		t.Error("expected trailing newline")
	}
}

func TestGetWriter(t *testing.T) {
	for _, f := range Formats {
		if _, err := GetWriter(f, nil); err != nil {
			t.Errorf("GetWriter(%q) unexpected error: %v", f, err)
		}
	}
	if _, err := GetWriter("xml", nil); err == nil {
		t.Error("GetWriter(xml) expected error")
	}
}
