package offline

// State is the proxy lifecycle position.
type State int32

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Message is an out-of-band control message.
type Message string

const (
	// MessageActivate activates without waiting once installation has completed.
	MessageActivate Message = "SKIP_WAITING"
	// MessageClearCaches wipes every bucket.
	MessageClearCaches Message = "CLEAR_CACHE"
)
