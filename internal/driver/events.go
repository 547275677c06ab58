package driver

// Status captures where a file is in its formatting lifecycle. Terminal
// statuses double as the per-file verdict reported to the user.
type Status string

const (
	// StatusQueued indicates the file is waiting to be processed.
	StatusQueued Status = "queued"
	// StatusFormatting indicates the file is being formatted.
	StatusFormatting Status = "formatting"
	// StatusOK indicates the file needed no changes.
	StatusOK Status = "ok"
	// StatusChanged indicates the file was rewritten.
	StatusChanged Status = "changed"
	// StatusWould indicates check mode found pending changes.
	StatusWould Status = "would"
	// StatusFailed indicates a signature fallback, decode or I/O error.
	StatusFailed Status = "failed"
)

// Terminal reports whether s is a final per-file verdict.
func (s Status) Terminal() bool {
	switch s {
	case StatusOK, StatusChanged, StatusWould, StatusFailed:
		return true
	}
	return false
}

// Event reports progress for a single file.
type Event struct {
	Path   string
	Status Status
	Err    error
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

// OnEvent implements ProgressSink.
func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}
