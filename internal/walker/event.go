package walker

import "context"

// Status is the processing state of one file.
type Status uint8

const (
	StatusQueued Status = iota
	StatusParsing
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusParsing:
		return "parsing"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	}
	return ""
}

// Event reports progress on one file.
type Event struct {
	File    string
	Status  Status
	Records int
}

func (w *Walker) send(ctx context.Context, ev Event) {
	if w.opts.Events == nil {
		return
	}
	select {
	case w.opts.Events <- ev:
	case <-ctx.Done():
	}
}
