package engine

import (
	"context"
	"errors"

	"voxguide/internal/catalog"
	"voxguide/internal/nlu"
)

type EventKind int

const (
	EventStart EventKind = iota
	EventResult
	EventEnd
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventResult:
		return "result"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one notification from a recognition session. Transcript is
// set for EventResult, Err for EventError.
type Event struct {
	Kind       EventKind
	Transcript string
	Err        error
}

// Recognizer is a speech recognition capability. Start begins one listening
// turn; the session reports back through Events and ends itself after a
// final result.
type Recognizer interface {
	Start(ctx context.Context) error
	Stop() error
	Events() <-chan Event
	Close() error
}

// Voice holds speech synthesis parameters, all in the 0..2 range with 1
// meaning the synthesizer default.
type Voice struct {
	Rate   float64
	Pitch  float64
	Volume float64
}

var DefaultVoice = Voice{Rate: 0.9, Pitch: 1, Volume: 0.8}

type Speaker interface {
	Speak(text string, v Voice) error
}

type Navigator interface {
	Navigate(route string) error
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// Notice is a user-visible message separate from spoken feedback.
type Notice struct {
	Title       string
	Description string
	Severity    Severity
}

type Notifier interface {
	Notify(n Notice)
}

// SignalSink receives non-navigation requests such as location sharing or
// settings changes.
type SignalSink interface {
	Signal(s nlu.Signal) error
}

// Fallback resolves utterances the pattern matcher could not place.
type Fallback interface {
	Resolve(ctx context.Context, u string, defs []catalog.Definition) (nlu.Match, error)
}

// Observer is told about every phase change and every processed utterance.
type Observer interface {
	PhaseChanged(from, to Phase)
	Processed(transcript string, m nlu.Match, out nlu.Outcome)
}

// Observers fans every notification out to each member.
type Observers []Observer

func (obs Observers) PhaseChanged(from, to Phase) {
	for _, o := range obs {
		o.PhaseChanged(from, to)
	}
}

func (obs Observers) Processed(transcript string, m nlu.Match, out nlu.Outcome) {
	for _, o := range obs {
		o.Processed(transcript, m, out)
	}
}

type Notifiers []Notifier

func (ns Notifiers) Notify(n Notice) {
	for _, o := range ns {
		o.Notify(n)
	}
}

// SignalSinks delivers each signal to every member and joins their errors.
type SignalSinks []SignalSink

func (ss SignalSinks) Signal(s nlu.Signal) error {
	var errs []error
	for _, sink := range ss {
		if err := sink.Signal(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
