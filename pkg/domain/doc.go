/*
Package domain contains the core domain models for the Concord engine.

It defines the entities negotiated between an automated proposer and a human
reviewer: Messages, Proposals (a UserGoal or a GraphSchema), the tri-state
Decision of a negotiation round, the Phase state machine that governs
approval, and the SessionState shared by all loops of one workflow run.
This package is kept pure and free of I/O or persistence concerns, following
Hexagonal Architecture principles.

# Key Entities

  - Message: one utterance in the negotiation transcript (user, agent, system).
  - Decision: the outcome of a loop iteration (continue, approved, exhausted).
  - Phase: the approval protocol state machine shared by all loops.
  - SessionState: workflow-wide shared state with set-once commit slots.
  - UserGoal / GraphSchema: the two proposal payloads Concord negotiates.
*/
package domain
