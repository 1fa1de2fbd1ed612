// Package render writes requirement sets, verification results and environments
// as tables, JSON or plain text.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/ui/output"
	"go.trai.ch/devshell/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// Format selects the output representation.
type Format string

const (
	// FormatAuto renders a table on terminals and plain text otherwise.
	FormatAuto Format = "auto"
	// FormatTable renders a rounded table.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatPlain renders one record per line.
	FormatPlain Format = "plain"
)

// ErrUnknownFormat is returned when a format name is not recognized.
var ErrUnknownFormat = zerr.New("unknown output format, expected auto, table, json or plain")

// ParseFormat parses a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatTable, FormatJSON, FormatPlain:
		return f, nil
	default:
		return "", domain.Tagged(ErrUnknownFormat, "format", s)
	}
}

// resolve replaces FormatAuto with the concrete format for w.
// Tables are only drawn on interactive terminals outside CI.
func (f Format) resolve(w io.Writer) Format {
	if f != FormatAuto && f != "" {
		return f
	}
	ci := os.Getenv("CI")
	if output.IsTerminal(w) && ci != "true" && ci != "1" {
		return FormatTable
	}
	return FormatPlain
}

// Requirements writes a flattened requirement set.
// Plain output is one "namespace:name" per line, sorted.
func Requirements(w io.Writer, set domain.RequirementSet, format Format) error {
	sorted := set.Sorted()

	switch format.resolve(w) {
	case FormatJSON:
		return writeJSON(w, set)
	case FormatTable:
		rows := make([][]string, 0, len(sorted))
		for _, r := range sorted {
			rows = append(rows, []string{r.Namespace.String(), r.Name.String()})
		}
		footer := fmt.Sprintf("%d requirements", len(sorted))
		return writeLine(w, renderTable(w, []string{"Namespace", "Package"}, rows, footer))
	default:
		for _, r := range sorted {
			if _, err := fmt.Fprintln(w, r.String()); err != nil {
				return err
			}
		}
		return nil
	}
}

type verifyRecord struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	AttrPath  string `json:"attr_path"`
	Found     bool   `json:"found"`
	Version   string `json:"version,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Error     string `json:"error,omitempty"`
}

// VerifyResults writes the outcome of a verify run.
func VerifyResults(w io.Writer, results []domain.VerifyResult, format Format) error {
	records := make([]verifyRecord, 0, len(results))
	for _, res := range results {
		rec := verifyRecord{
			Namespace: res.Requirement.Namespace.String(),
			Name:      res.Requirement.Name.String(),
			AttrPath:  res.AttrPath,
			Found:     res.Found,
			Version:   res.Info.Version,
			Summary:   res.Info.Summary,
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		records = append(records, rec)
	}

	switch format.resolve(w) {
	case FormatJSON:
		return writeJSON(w, records)
	case FormatTable:
		rows := make([][]string, 0, len(records))
		missing := 0
		for _, rec := range records {
			status := style.Success.Render(style.Check)
			detail := rec.Version
			switch {
			case rec.Error != "":
				status = style.Failure.Render(style.Warning)
				detail = rec.Error
				missing++
			case !rec.Found:
				status = style.Failure.Render(style.Cross)
				detail = "not found"
				missing++
			}
			rows = append(rows, []string{status, rec.Namespace, rec.Name, rec.AttrPath, detail})
		}
		footer := fmt.Sprintf("%d checked, %d missing", len(records), missing)
		return writeLine(w, renderTable(w, []string{"", "Namespace", "Package", "Attribute", "Version"}, rows, footer))
	default:
		for _, rec := range records {
			status := "ok"
			detail := rec.Version
			switch {
			case rec.Error != "":
				status, detail = "error", rec.Error
			case !rec.Found:
				status, detail = "missing", "-"
			}
			if _, err := fmt.Fprintf(w, "%s\t%s:%s\t%s\t%s\n", status, rec.Namespace, rec.Name, rec.AttrPath, detail); err != nil {
				return err
			}
		}
		return nil
	}
}

// Environment writes a materialized environment.
// Plain output is a sourceable list of export statements.
func Environment(w io.Writer, env *domain.Environment, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, env)
	}

	vars := append([]string(nil), env.Vars...)
	sort.Strings(vars)
	for _, kv := range vars {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "export %s=%s\n", key, shellQuote(value)); err != nil {
			return err
		}
	}
	return nil
}

// shellQuote single-quotes s for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

func renderTable(w io.Writer, headers []string, rows [][]string, footer string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if width := terminalWidth(w); width > 0 {
		tw.SetAllowedRowLength(width)
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	if footer != "" {
		tw.SetCaption("%s", footer)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// terminalWidth returns the column count of the terminal behind w, or 0 when unknown.
func terminalWidth(w io.Writer) int {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // file descriptors fit in int
	if err != nil {
		return 0
	}
	return width
}
