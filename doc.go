/*
Package concord is a human-approved negotiation engine: bounded loops of
propose, review, refine that end only when the reviewer approves or the
iteration budget runs out.

A session uploads structured artifacts, negotiates a user goal, then
negotiates a graph schema; an inner proposer/critic loop refines every
schema proposal before the reviewer sees it. Approved results are
committed exactly once into shared session state and survive restarts
through a pluggable store.

The zero-config path runs in memory with rule-based capabilities:

	engine := concord.New()
	id, _ := engine.StartSession(ctx, artifacts...)
	runner := concord.NewRunner()
	runner.Input, runner.Output = os.Stdin, os.Stdout
	runner.Run(ctx, engine, id, "I want a graph of my org")

Capabilities, storage, locking and observability hooks are all swappable
through Options.
*/
package concord
