package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Renderer serializes a Plan to bytes.
type Renderer interface {
	Render(plan *Plan) ([]byte, error)
}

// ForFormat returns the renderer for "text", "json" or "markdown". An empty
// format selects text.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want text, json or markdown)", format)
	}
}

// TextRenderer lists each file followed by its tab-indented commands.
type TextRenderer struct{}

func (r *TextRenderer) Render(plan *Plan) ([]byte, error) {
	var sb strings.Builder
	if plan.Empty() {
		sb.WriteString("No pending changes.\n")
		return []byte(sb.String()), nil
	}
	for _, f := range plan.Files {
		sb.WriteString(f.Path)
		sb.WriteString(":\n")
		if len(f.Args) > 0 {
			fmt.Fprintf(&sb, "\tToolInvocation: %s\n", joinArgs(f.Args))
		}
		if f.RestoreModTime != nil {
			fmt.Fprintf(&sb, "\tRestoreTimestamp: %s\n", f.RestoreModTime.UTC().Format(time.RFC3339Nano))
		}
	}
	return []byte(sb.String()), nil
}

// JSONRenderer renders a Plan as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(plan *Plan) ([]byte, error) {
	if plan == nil {
		plan = &Plan{}
	}
	if plan.Files == nil {
		plan = &Plan{Files: []FileChange{}}
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return append(data, '\n'), nil
}

// MarkdownRenderer renders a Plan as a Markdown table.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(plan *Plan) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("# Pending metadata changes\n\n")
	if plan.Empty() {
		sb.WriteString("_No pending changes._\n")
		return []byte(sb.String()), nil
	}
	fmt.Fprintf(&sb, "%d file(s)\n\n", len(plan.Files))
	sb.WriteString("| File | Assignments | Restore modified |\n")
	sb.WriteString("|------|-------------|------------------|\n")
	for _, f := range plan.Files {
		restore := "-"
		if f.RestoreModTime != nil {
			restore = f.RestoreModTime.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", escapeCell(f.Path), escapeCell(strings.Join(assignments(f.Args), "<br>")), restore)
	}
	return []byte(sb.String()), nil
}

// assignments picks the tag assignments out of a merged invocation.
func assignments(args []string) []string {
	var out []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") && strings.Contains(a, "=") {
			out = append(out, a[1:])
		}
	}
	return out
}

func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			quoted[i] = strconv.Quote(a)
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
