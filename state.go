package periodic

import "fmt"

// State is the state of a Timer.
//
//	Stopped                → Running                 [Start]
//	Running                → CancelingToStop         [Stop]
//	Running                → Executing               [tick]
//	Executing              → Running                 [Start, handler returned]
//	Executing              → Stopped                 [Stop]
//	CancelingToStop        → CancelingToStart        [Start]
//	CancelingToStop        → Stopped                 [tick]
//	CancelingToStart       → CancelingToStop         [Stop]
//	CancelingToStart       → Running                 [tick]
//	CancelingToFastForward → CancelingToStart        [Start]
//	CancelingToFastForward → CancelingToStop         [Stop]
//	CancelingToFastForward → Executing               [tick]
//	any                    → CancelingToFastForward  [FastForward]
type State uint8

const (
	// Stopped means no wait is armed and none is pending delivery.
	Stopped State = iota

	// Running means a wait for the period is armed.
	Running

	// Executing means the handler is being invoked.
	// No wait is armed unless the handler armed one.
	Executing

	// CancelingToStop means the armed wait was canceled and
	// the timer stops once its completion is delivered.
	CancelingToStop

	// CancelingToStart means the armed wait was canceled and
	// a wait for the full period is armed once its completion
	// is delivered.
	CancelingToStart

	// CancelingToFastForward means the armed wait was canceled and
	// the handler is invoked once its completion is delivered.
	CancelingToFastForward
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Executing:
		return "executing"
	case CancelingToStop:
		return "canceling_to_stop"
	case CancelingToStart:
		return "canceling_to_start"
	case CancelingToFastForward:
		return "canceling_to_fast_forward"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}
