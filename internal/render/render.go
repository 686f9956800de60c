// Package render formats solver results for terminals, Markdown documents
// and machine consumers.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/njchilds90/exactode"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatMarkdown, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, markdown, json or yaml)", s)
}

// Document is one solved (or failed) equation ready for output.
type Document struct {
	Name         string          `json:"name,omitempty" yaml:"name,omitempty"`
	M            string          `json:"m" yaml:"m"`
	N            string          `json:"n" yaml:"n"`
	Solved       bool            `json:"solved" yaml:"solved"`
	Solution     string          `json:"solution,omitempty" yaml:"solution,omitempty"`
	SolutionText string          `json:"solution_text,omitempty" yaml:"solution_text,omitempty"`
	Factor       string          `json:"factor,omitempty" yaml:"factor,omitempty"`
	FactorVar    string          `json:"factor_var,omitempty" yaml:"factor_var,omitempty"`
	Steps        []exactode.Step `json:"steps" yaml:"steps"`
}

// NewDocument pairs a result with the input that produced it.
func NewDocument(name, m, n string, res exactode.Result) Document {
	d := Document{
		Name:         name,
		M:            m,
		N:            n,
		Solved:       res.Solved(),
		Solution:     res.Solution,
		SolutionText: res.SolutionText,
		FactorVar:    res.FactorVar,
		Steps:        res.Steps,
	}
	if res.Factor != nil {
		d.Factor = res.Factor.String()
	}
	if d.Steps == nil {
		d.Steps = []exactode.Step{}
	}
	return d
}

// Write renders one document.
func Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatYAML:
		return writeYAML(w, doc)
	}
	return WriteAll(w, f, []Document{doc})
}

// WriteAll renders a list of documents. JSON and YAML produce one array;
// text and Markdown print the documents one after another.
func WriteAll(w io.Writer, f Format, docs []Document) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, docs)
	case FormatYAML:
		return writeYAML(w, docs)
	case FormatMarkdown:
		for i, d := range docs {
			if i > 0 {
				if _, err := io.WriteString(w, "\n---\n\n"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, Markdown(d)); err != nil {
				return err
			}
		}
		return nil
	case FormatText:
		for i, d := range docs {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, Text(d)+"\n"); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q", f)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Markdown renders doc with one section per step and display-math formulas.
func Markdown(doc Document) string {
	var sb strings.Builder
	if doc.Name != "" {
		fmt.Fprintf(&sb, "## %s\n\n", doc.Name)
	}
	fmt.Fprintf(&sb, "$$(%s)\\,dx + (%s)\\,dy = 0$$\n\n", doc.M, doc.N)
	for _, s := range doc.Steps {
		fmt.Fprintf(&sb, "### %s\n\n%s\n\n", s.Title, s.Text)
		if s.Formula != "" {
			fmt.Fprintf(&sb, "$$%s$$\n\n", s.Formula)
		}
	}
	if doc.Solved {
		fmt.Fprintf(&sb, "**Solución:** $%s$\n", doc.Solution)
	}
	return sb.String()
}
