// Package docs renders the command reference from the registry.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"server-console/pkg/cmd"
)

// DefaultTemplate is used when no template file is given. CommandSections
// holds the generated Markdown.
const DefaultTemplate = `# Console commands

Commands are typed at the console prompt, passed to ` + "`console exec`" + `, or
sent in Discord after the command prefix.

{{.CommandSections}}`

// WriteReference renders the Markdown reference of every command in reg,
// grouped by category in weight order. tmplPath may be empty.
func WriteReference(w io.Writer, reg *cmd.Registry, weight func(category string) int, tmplPath string) error {
	descs := make([]*cmd.Descriptor, 0, reg.Len())
	for _, c := range reg.GetAll() {
		if d := cmd.Describe(c); d != nil {
			descs = append(descs, d)
		}
	}
	sort.Slice(descs, func(i, j int) bool {
		wi, wj := weight(descs[i].Category), weight(descs[j].Category)
		if wi == wj {
			return descs[i].Name < descs[j].Name
		}
		return wi < wj
	})

	var buf bytes.Buffer
	currentCategory := ""
	for _, d := range descs {
		if d.Category != currentCategory || buf.Len() == 0 {
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			currentCategory = d.Category
			fmt.Fprintf(&buf, "### %s\n\n", orDefault(currentCategory, "Other"))
		}

		fmt.Fprintf(&buf, "- **`%s`** - %s", d.UsageLine(), d.Description)
		var notes []string
		if len(d.Aliases) > 0 {
			notes = append(notes, "aliases: "+strings.Join(d.Aliases, ", "))
		}
		if d.Permission != "" {
			notes = append(notes, "requires "+d.Permission)
		}
		if d.Async {
			notes = append(notes, "background job")
		}
		if len(notes) > 0 {
			fmt.Fprintf(&buf, " _(%s)_", strings.Join(notes, "; "))
		}
		buf.WriteString("\n")
	}

	text := DefaultTemplate
	if tmplPath != "" {
		raw, err := os.ReadFile(tmplPath)
		if err != nil {
			return err
		}
		text = string(raw)
	}
	tmpl, err := template.New("reference").Parse(text)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	data := struct {
		CommandSections string
	}{
		CommandSections: buf.String(),
	}
	return tmpl.Execute(w, data)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
