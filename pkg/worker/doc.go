// Package worker tracks a dynamic set of named worker goroutines.
//
// A worker is started with Spawn (or through a Manager) and receives a
// *Control. Pause and removal are cooperative: the manager only flips flags
// on the Control, and a worker body that never calls Checkpoint, Paused or
// Removed is never paused and never stopped. Nothing here suspends or kills
// a goroutine.
//
// A panic inside a worker body does not crash the process; it is captured
// and returned from Join as a *JoinError wrapping ErrJoinFailure.
package worker
