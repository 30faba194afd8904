/*
Package domain contains the core domain models of the process engine.

It defines the process graph, the live execution tree and the human tasks
created while a process instance runs. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Graph: the executable model of a process definition (FlowNode, SequenceFlow).
  - Execution: a live position of control flow within one process instance.
  - Task / IdentityLink: human work created by user task activities.
  - ProcessDefinition / HistoricProcessInstance: versioned definitions and
    the audit record pointing at them.

Multi-instance bookkeeping is kept as plain variables on the multi-instance
root execution (see the Var* constants) so it survives any persistence
round trip.
*/
package domain
