/*
Package flowable is the runtime core of a BPMN orchestration engine.

It executes process definitions made of start and end events, exclusive
gateways and user tasks, including multi-instance user tasks whose
participants can be added or removed while the instance runs. The graph of
a running instance can be edited live: tasks can be inserted, deleted or
reassigned, and an instance can be upgraded to a newer definition version.
Live edits are guarded by per-instance read/write leases with a TTL, so a
crashed holder never blocks an instance forever.

# Concept

A deployed definition is a static graph. Every process instance reads its
graph through a resolver that prefers the instance's own override graph,
which is created the first time the instance is edited. Commands on the
same instance are serialized; queries are not.

# Usage

	eng, err := flowable.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := eng.Deploy(ctx, definitionYAML); err != nil {
		log.Fatal(err)
	}

	pi, err := eng.StartProcessInstance(ctx, "leave", "", map[string]any{"days": 3})
	if err != nil {
		log.Fatal(err)
	}

	// Add a reviewer in front of the archive step of this instance only.
	if _, err := eng.InsertTask(ctx, pi.ID, "archive", "before", "Review", []string{"lead"}); err != nil {
		log.Fatal(err)
	}

Stores default to memory. Use WithGraphStore and WithLeaseStore to share
state through Redis, SQLite or the filesystem.
*/
package flowable
