// Package share provides cells: containers that give many goroutines
// synchronized access to one logical value.
//
// Four variants trade safety against overhead:
//
//   - LockedCell guards the value with a sync.RWMutex and carries a
//     ChangeSignal, so callers can block until the value changes.
//   - SimpleCell guards the value with a sync.Mutex and nothing else.
//   - AtomicCell publishes immutable snapshots through an atomic pointer.
//     Reads never block. Update and Write are load-copy-mutate-CAS and are
//     not atomic as a whole once a bounded RetryPolicy gives up; Increment
//     and Add retry until they win and never lose an update.
//   - LockedZeroCopyCell is a second view onto the exact lock and value
//     owned by a LockedCell, obtained with LockedCell.ShareLock.
//
// Every cell is a handle. Clone returns another handle to the same state;
// the payload is copied only by Get.
//
// Note the difference between the two "export" operations of LockedCell:
// ShareLock returns a view that stays synchronized with the origin in both
// directions, while AsAtomic returns an independent atomic pointer holding a
// snapshot. An AtomicCell built from that pointer with FromExisting never
// observes or feeds back into the LockedCell it was taken from.
//
// Callbacks passed to lock-based cells run with the lock held. If a callback
// panics the lock is released, the change is still signalled and the panic
// continues to the caller; cells never enter a poisoned state.
package share
