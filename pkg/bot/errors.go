package bot

import "fmt"

// Dispatch operations.
const (
	OpSetStatus   = "set_status"
	OpSendSummary = "send_summary"
	OpSendPrice   = "send_price"
)

// DispatchError reports a chat send the platform rejected. It is logged and
// counted, never propagated into the scheduling loop.
type DispatchError struct {
	Op        string
	ChannelID string
	Err       error
}

func (e *DispatchError) Error() string {
	if e.ChannelID == "" {
		return fmt.Sprintf("dispatch %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("dispatch %s to channel %s: %v", e.Op, e.ChannelID, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
