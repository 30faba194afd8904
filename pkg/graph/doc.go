/*
Package graph resolves and validates the executable graph of a process
instance.

A process instance runs on the static graph of its definition until the
graph is edited at runtime; from then on it owns an override graph stored in
a ports.GraphStore. Resolver hides that distinction: it loads the override
when present and falls back to a cached copy of the definition graph.

Runtime reads go through Resolver.Read, which holds the shared read lease of
the instance so that a concurrent edit cannot interleave with the read.
*/
package graph
