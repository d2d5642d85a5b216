package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/bindings/go/modeljson"
	"ocm.software/open-component-model/bindings/go/modeljson/internal/flags/enum"
	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ErrInvalidDocument is returned by validate when the document has errors.
var ErrInvalidDocument = errors.New("document is invalid")

// Diagnostic is one reported problem of a loaded document.
type Diagnostic struct {
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

func newValidate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [flags] {file|-}",
		Short: "Load a document and report its errors and warnings",
		Long: `Load a document and list the problems found while reading it: unknown
types and features, invalid values and unresolved references. The command
fails if the document has errors; warnings alone do not fail it.`,
		Example: `  modeljson validate --schema library.yaml library.json
  modeljson validate --schema library.yaml -o yaml library.json`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
	registerSchemaFlag(cmd)
	enum.VarP(cmd.Flags(), FlagOutput, "o", []string{OutputTable, OutputJSON, OutputYAML}, "output format of the diagnostics")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	output, err := enum.Get(cmd.Flags(), FlagOutput)
	if err != nil {
		return err
	}
	doc, _, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}

	diagnostics := collectDiagnostics(doc)
	data, err := encodeDiagnostics(output, diagnostics)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}
	if n := len(doc.Errors()); n > 0 {
		return fmt.Errorf("%w: %d errors", ErrInvalidDocument, n)
	}
	return nil
}

func collectDiagnostics(doc *model.Document) []Diagnostic {
	diagnostics := make([]Diagnostic, 0, len(doc.Errors())+len(doc.Warnings()))
	for _, err := range doc.Errors() {
		diagnostics = append(diagnostics, Diagnostic{Severity: SeverityError, Kind: kindOf(err), Message: err.Error()})
	}
	for _, err := range doc.Warnings() {
		diagnostics = append(diagnostics, Diagnostic{Severity: SeverityWarning, Kind: kindOf(err), Message: err.Error()})
	}
	return diagnostics
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, modeljson.ErrTypeNotFound):
		return "type"
	case errors.Is(err, modeljson.ErrFeatureNotFound):
		return "feature"
	case errors.Is(err, modeljson.ErrInvalidValue):
		return "value"
	case errors.Is(err, modeljson.ErrUnresolvedReference):
		return "unresolved"
	case errors.Is(err, modeljson.ErrDanglingReference):
		return "dangling"
	default:
		return "other"
	}
}

func encodeDiagnostics(output string, diagnostics []Diagnostic) ([]byte, error) {
	switch output {
	case OutputJSON:
		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(diagnostics); err != nil {
			return nil, fmt.Errorf("encoding diagnostics failed: %w", err)
		}
		return buf.Bytes(), nil
	case OutputYAML:
		return yaml.Marshal(diagnostics)
	case OutputTable:
		return encodeDiagnosticsAsTable(diagnostics), nil
	default:
		return nil, fmt.Errorf("unknown output format: %q", output)
	}
}

func encodeDiagnosticsAsTable(diagnostics []Diagnostic) []byte {
	var buf bytes.Buffer
	if len(diagnostics) == 0 {
		buf.WriteString("no problems found\n")
		return buf.Bytes()
	}
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.AppendHeader(table.Row{"Severity", "Kind", "Message"})
	for _, d := range diagnostics {
		t.AppendRow(table.Row{d.Severity, d.Kind, d.Message})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 3, WidthMax: 100},
	})
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return buf.Bytes()
}
