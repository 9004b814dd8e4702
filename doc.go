// Package periodic provides a timer that repeatedly invokes a handler
// at a fixed period on top of a cooperative event loop's single-shot
// deadline waits.
//
// A Timer is not thread-safe. All of its methods must be called
// from the goroutine dispatching the loop's completions, which includes
// the handler itself: the handler may start, stop, fast-forward,
// retime, replace or close its own timer.
package periodic
