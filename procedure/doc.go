// Package procedure runs UI workflows described as trees of effectful steps.
// A Procedure is pure data; the Engine interprets it one thread at a time,
// suspending threads at Await, AwaitGlobal and SyncAll nodes and resuming them
// when a matching event is dispatched. All threads share a single Memory value
// owned by the Engine, so no locking is involved: threads interleave across
// events, they never run in parallel.
//
// Procedures written against a narrow memory type and narrow event types can
// be embedded in a broader parent with Embed (or the LiftMemory, LiftLocal,
// LiftGlobal and MapCommand helpers).
package procedure
