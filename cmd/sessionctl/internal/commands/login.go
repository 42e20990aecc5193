package commands

import (
	"context"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/roles"
)

type LoginCmd struct {
	Email    string `help:"Account email." required:""`
	Password string `help:"Account password." env:"GOSESSION_PASSWORD" required:""`
	Role     string `help:"Expected role (super_admin, admin, user)." default:""`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	var hint roles.Role
	if l.Role != "" {
		r, ok := roles.Parse(l.Role)
		if !ok {
			return fmt.Errorf("unknown role %q", l.Role)
		}
		hint = r
	}

	rt, err := initialize(ctx, globals, false)
	if err != nil {
		return err
	}
	defer rt.close()

	res, err := rt.store.SignIn(ctx, goSession.SignInRequest{Email: l.Email, Password: l.Password, RoleHint: hint})
	if err != nil {
		return fmt.Errorf("sign-in failed (%s): %w", goSession.FailureReason(err), err)
	}
	fmt.Fprintf(stdout, "signed in as %s (profile %s)\n", res.User.ID, res.Outcome)
	printState(rt.store.Snapshot())
	return nil
}
