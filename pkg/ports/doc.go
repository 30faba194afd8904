/*
Package ports defines the driven ports (interfaces) of the process engine.

These interfaces decouple the runtime core from external implementations,
allowing the engine to work with various storage backends, lease stores and
expression languages.

# Key Interfaces

  - LeaseStore: TTL bound key/value leases backing the graph read/write locks.
  - GraphStore: per-instance override graphs written by live edits.
  - DefinitionRepository: deployed definitions and their static graphs.
  - ExecutionStore, TaskService, HistoryService: runtime and audit records.
  - Evaluator: expression evaluation against an execution's variables.
  - Agenda: scheduling of the next engine step.
*/
package ports
