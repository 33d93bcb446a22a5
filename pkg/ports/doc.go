/*
Package ports defines the driven ports (interfaces) for the Concord engine.

These interfaces decouple the negotiation core from external implementations,
allowing the engine to work with various message front-ends, capability
backends, and storage adapters.

# Key Interfaces

  - Channel: the per-session message channel between engine and reviewer.
  - Capability: an opaque request/response operation standing in for any
    "agent"/model call (proposer, critic, intent elicitor).
  - StateStore: persistence of SessionState across invocations.
  - DistributedLocker: distributed locking for concurrent session access.
*/
package ports
