package commands

import (
	"context"
	"fmt"
)

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	rt, err := initialize(ctx, globals, false)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.store.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "signed out")
	return nil
}
