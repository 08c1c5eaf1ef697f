package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/promptscore/internal/evaluation"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *evaluation.Report) error
}

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "markdown", "sarif"}

// GetWriter returns a writer for the specified format. The renderer is used
// by the markdown writer and may be nil.
func GetWriter(format string, r *Renderer) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{Renderer: r}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *evaluation.Report, format, outPath string, r *Renderer) error {
	writer, err := GetWriter(format, r)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}
