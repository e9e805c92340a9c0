package broadcast

// ErrBroadcasterClosed is returned by Broadcast after Close.
type ErrBroadcasterClosed struct{}

func (e ErrBroadcasterClosed) Error() string {
	return "broadcast: broadcaster is closed"
}
