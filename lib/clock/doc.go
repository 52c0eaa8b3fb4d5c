// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for the
// daemon's polling loops.
//
// Every streaming RPC in forged is a sleep-poll loop, and a loop that
// calls time.Sleep or time.NewTicker directly can only be tested with
// real wall-clock waits. Production code therefore accepts a Clock
// parameter instead of calling the time package: Real() provides
// standard library behavior, Fake() provides a deterministic clock
// that advances only when Advance is called.
//
// The fake clock's synchronization contract: when a goroutine calls
// Sleep, After, or NewTicker on a FakeClock, it registers a pending
// waiter. Tests call WaitForTimers to block until the loop under test
// has parked, then Advance to fire its deadline deterministically.
// This eliminates the registration/advance race that plagues tests
// which use real sleeps for synchronization.
package clock
