package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"server-console/internal/config"
	"server-console/pkg/args"
	"server-console/pkg/cmd"
)

func init() {
	Register(&Command{
		Sort:        0,
		Name:        "help",
		Aliases:     []string{"?"},
		Description: "Show all commands, or details of one.",
		Category:    config.CategoryInformation,
		Args: []args.ArgSpec{
			{Name: "command", Type: args.Text(), Optional: true, Help: "command name or alias"},
		},
		Handler: helpHandler,
	})
}

func helpHandler(ctx context.Context, env *Env, inv *cmd.Invocation) error {
	if name := inv.Args.String("command"); name != "" {
		c, ok := env.Registry.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: %s", cmd.ErrUnknownCommand, name)
		}
		inv.Reply(buildCommandHelp(cmd.Describe(c)))
		return nil
	}
	inv.Reply(buildHelpMessage(env))
	return nil
}

func buildHelpMessage(env *Env) string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	current := ""
	for _, c := range All() {
		d := cmd.Describe(env.Registry.Get(c.Name))
		if d == nil {
			continue
		}
		if d.Category != current {
			if current != "" {
				fmt.Fprintln(tw)
			}
			current = d.Category
			fmt.Fprintf(tw, "%s\n", current)
		}
		line := d.UsageLine()
		if d.Permission != "" {
			line += " (" + d.Permission + ")"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", line, d.Description)
	}
	tw.Flush()

	sb.WriteString("\nType help <command> for details.")
	return sb.String()
}

func buildCommandHelp(d *cmd.Descriptor) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n", d.UsageLine(), d.Description)
	if len(d.Aliases) > 0 {
		fmt.Fprintf(&sb, "Aliases: %s\n", strings.Join(d.Aliases, ", "))
	}
	if d.Permission != "" {
		fmt.Fprintf(&sb, "Requires: %s\n", d.Permission)
	}
	if d.Async {
		sb.WriteString("Runs as a background job.\n")
	}

	if d.Schema != nil && d.Schema.Len() > 0 {
		sb.WriteString("Arguments:\n")
		tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
		for _, spec := range d.Schema.Specs() {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", spec.Name, typeLabel(spec), spec.Help)
		}
		tw.Flush()
	}
	return strings.TrimRight(sb.String(), "\n")
}

func typeLabel(spec args.ArgSpec) string {
	t := spec.Type
	label := t.Name()
	if t.Kind() == args.KindEnum {
		names := make([]string, 0, len(t.Members()))
		for _, m := range t.Members() {
			names = append(names, m.Name)
		}
		sep := "|"
		if t.IsFlags() {
			sep = ","
		}
		label = strings.Join(names, sep)
	}
	if spec.NamedOnly {
		label = spec.Name + ":" + label
	}
	return label
}
