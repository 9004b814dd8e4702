// Package loop provides a cooperative event loop that delivers
// single-shot deadline completions from a single dispatching goroutine.
// Completions are never delivered inline with the call that armed
// or canceled them, and the loop's clock can be fast-forwarded.
// Arm, Post, the cancel funcs returned by Arm and the time and queue
// inspection methods are thread-safe. Dispatch and Run must be driven
// by one goroutine at a time.
package loop
