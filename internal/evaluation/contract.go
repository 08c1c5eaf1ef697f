package evaluation

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// FileStatus is the change status of a file in the request.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusRenamed  FileStatus = "renamed"
)

// FileInput is one prompt file sent for evaluation. Before is nil when no
// prior version exists, and is encoded as JSON null.
type FileInput struct {
	Path   string     `json:"path"`
	Name   string     `json:"name"`
	Status FileStatus `json:"status"`
	After  string     `json:"after"`
	Before *string    `json:"before"`
}

// NewFileInput builds a FileInput, deriving Name from the path base.
func NewFileInput(path string, status FileStatus, before *string, after string) FileInput {
	return FileInput{
		Path:   path,
		Name:   filepath.Base(path),
		Status: status,
		After:  after,
		Before: before,
	}
}

// Metadata identifies the pull request under review.
type Metadata struct {
	Repository string `json:"repository,omitempty"`
	PRNumber   int    `json:"prNumber,omitempty"`
}

// Request is the body posted to the evaluation service.
type Request struct {
	APIKey         string      `json:"apiKey"`
	Mode           ModeKind    `json:"mode"`
	SystemOverview string      `json:"systemOverview,omitempty"`
	Files          []FileInput `json:"files"`
	Metadata       *Metadata   `json:"metadata,omitempty"`
}

// ResultEntry is one file's evaluation in the service response.
type ResultEntry struct {
	File          string          `json:"file"`
	FactorResults []Factor        `json:"factorResults"`
	Synthesis     Synthesis       `json:"synthesis"`
	Comparison    json.RawMessage `json:"comparison,omitempty"`
}

// Response is the evaluation service's reply.
type Response struct {
	Status  string        `json:"status"`
	Results []ResultEntry `json:"results,omitempty"`
	Message string        `json:"message,omitempty"`
}

// ResponseError reports a successful HTTP exchange whose payload signals
// failure. It is never retried.
type ResponseError struct {
	Status  string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("evaluation failed: %s", e.Message)
	}
	if e.Status != "success" {
		return fmt.Sprintf("evaluation failed: unexpected status %q", e.Status)
	}
	return "evaluation failed: response has no results"
}

// Validate checks the payload shape. A non-"success" status or a missing
// results array is an error regardless of the HTTP status that carried it.
func (r *Response) Validate() error {
	if r.Status != "success" || r.Results == nil {
		return &ResponseError{Status: r.Status, Message: r.Message}
	}
	return nil
}

// ComparisonResults converts response entries into renderable results. The
// request files decide IsNewFile; entries are matched by path, then by name.
func (r *Response) ComparisonResults(files []FileInput) []ComparisonResult {
	out := make([]ComparisonResult, 0, len(r.Results))
	for _, e := range r.Results {
		cr := ComparisonResult{
			PromptFile:    e.File,
			Synthesis:     e.Synthesis,
			FactorResults: e.FactorResults,
			Comparison:    e.Comparison,
		}
		if f, ok := matchFile(files, e.File); ok {
			cr.IsNewFile = f.Status == StatusAdded || f.Before == nil
		}
		cr.HasCriticalIssue = HasCriticalIssue(cr)
		out = append(out, cr)
	}
	return out
}

func matchFile(files []FileInput, name string) (FileInput, bool) {
	for _, f := range files {
		if f.Path == name {
			return f, true
		}
	}
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return FileInput{}, false
}
