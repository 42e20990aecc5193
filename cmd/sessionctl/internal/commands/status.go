package commands

import (
	"context"
	"fmt"
)

type StatusCmd struct {
	Subscription bool `help:"Also report subscription validity."`
}

func (s *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	rt, err := initialize(ctx, globals, false)
	if err != nil {
		return err
	}
	defer rt.close()

	res, err := rt.store.CheckValidity(ctx)
	if err != nil {
		return err
	}
	if res.Cleared {
		fmt.Fprintf(stdout, "session cleared: %s\n", res.Reason)
	}
	printState(rt.store.Snapshot())

	if s.Subscription && rt.store.User() != nil {
		fmt.Fprintf(stdout, "subscription valid: %t\n", rt.store.SubscriptionValid(ctx))
	}
	return nil
}
