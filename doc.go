// Package vexsync keeps a local catalog of robotics competition data in sync
// with the public competition service and notifies chat channels about it.
//
// vexsync is a library. The Engine runs sync passes for programs and seasons,
// team registrations, events and skills rankings; each pass fetches from the
// remote service through a rate-limited client, upserts into a store.Store,
// and logs what it inserted or updated. Notifications fan out to every
// configured notify.Channel, mentioning the users subscribed to the teams
// concerned.
//
// Quick start:
//
//	client, err := remote.New(remote.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := vexsync.New(
//	    vexsync.WithStore(memory.New()),
//	    vexsync.WithRemote(client),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tally, err := engine.SyncTeams(ctx, program.VRC, 130)
//
// cmd/vexsync wires the engine to MongoDB, Discord, webhooks and a scheduler.
package vexsync
