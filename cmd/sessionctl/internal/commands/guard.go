package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/roles"
)

type GuardCmd struct {
	Path    string   `arg:"" help:"Protected path to evaluate."`
	Allowed []string `help:"Roles allowed to open the path." default:"user"`
}

func (g *GuardCmd) Run(ctx context.Context, globals *Globals) error {
	allowed, err := parseRoles(g.Allowed)
	if err != nil {
		return err
	}

	rt, err := initialize(ctx, globals, false)
	if err != nil {
		return err
	}
	defer rt.close()

	d, _ := guard.Check(ctx, rt.store, allowed, g.Path, guard.Options{})
	switch d.Action {
	case guard.ActionRedirectLogin, guard.ActionRedirectHome:
		fmt.Fprintf(stdout, "%s -> %s\n", d.Action, d.Location)
	default:
		fmt.Fprintln(stdout, d.Action)
	}
	return nil
}

func parseRoles(in []string) ([]roles.Role, error) {
	out := make([]roles.Role, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			r, ok := roles.Parse(part)
			if !ok {
				return nil, fmt.Errorf("unknown role %q", part)
			}
			out = append(out, r)
		}
	}
	return out, nil
}
