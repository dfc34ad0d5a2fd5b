// Package util holds helpers shared by the landgrid commands.
package util

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Usage is what a command's Use line says about its arguments.
type Usage struct {
	Required []string
	Optional []string
	// Variadic is set when the last placeholder ends in "...".
	Variadic bool
}

// ParseUse reads the placeholders after the command name: <name> is
// required, [name] optional. [options] and [flags] are not arguments.
func ParseUse(use string) Usage {
	var u Usage
	fields := strings.Fields(use)
	if len(fields) < 2 {
		return u
	}
	for _, f := range fields[1:] {
		variadic := strings.HasSuffix(f, "...")
		f = strings.TrimSuffix(f, "...")
		switch {
		case strings.HasPrefix(f, "<") && strings.HasSuffix(f, ">"):
			u.Required = append(u.Required, strings.Trim(f, "<>"))
		case strings.HasPrefix(f, "[") && strings.HasSuffix(f, "]"):
			name := strings.Trim(f, "[]")
			if name == "options" || name == "flags" {
				continue
			}
			u.Optional = append(u.Optional, name)
		default:
			continue
		}
		u.Variadic = u.Variadic || variadic
	}
	return u
}

// Validate is a cobra.PositionalArgs that checks args against cmd.Use.
func Validate(cmd *cobra.Command, args []string) error {
	u := ParseUse(cmd.Use)
	if len(args) < len(u.Required) {
		return fmt.Errorf("%s needs %d argument(s): %s", cmd.Name(), len(u.Required), placeholders(u.Required))
	}
	if most := len(u.Required) + len(u.Optional); !u.Variadic && len(args) > most {
		return fmt.Errorf("%s takes at most %d argument(s), got %d", cmd.Name(), most, len(args))
	}
	for i, a := range args {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("%s: argument %d is empty", cmd.Name(), i+1)
		}
	}
	return nil
}

func placeholders(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "<" + n + ">"
	}
	return strings.Join(out, " ")
}
