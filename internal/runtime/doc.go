/*
Package runtime implements the negotiation loop engine.

A Loop is a bounded sequence of Steps re-executed until its end condition
holds or its iteration budget runs out. The engine only chains step outputs
within one iteration; linkage between iterations is supplied by the loop's
own carry-over slot, an instance-scoped field written by the terminal step
of every iteration and read by the first step of the next. Loops nest: an
inner loop becomes a single opaque Step of an outer loop and reports back
only its terminal decision. A Workflow strings loops and steps together
over one session's Scope and performs no iteration logic itself.
*/
package runtime
