package nlu

import (
	"strings"

	"voxguide/internal/catalog"
)

type SignalKind string

const (
	ShareLocation SignalKind = "share-location"
	SetVoice      SignalKind = "set-voice"
	AdjustVolume  SignalKind = "adjust-volume"
)

// Signal asks a collaborator outside the engine to do something that is
// not a navigation.
type Signal struct {
	Kind  SignalKind
	Value string
}

// Outcome is what a dispatched command wants to happen. Route is empty
// when no navigation is requested.
type Outcome struct {
	Feedback string
	Route    string
	Signals  []Signal
	Handled  bool
}

const (
	NotImplementedFeedback = "Command recognized but not implemented yet."
	NoMatchFeedback        = "Sorry, I didn't understand that command. Try saying 'voice commands' to see what I can do."
)

var unhandled = Outcome{Feedback: NotImplementedFeedback}

func Dispatch(def catalog.Definition) Outcome {
	switch a := def.Action.(type) {
	case catalog.NavigateTo:
		return Outcome{
			Feedback: "Opening " + strings.ToLower(def.Description),
			Route:    a.Route,
			Handled:  true,
		}
	case catalog.EmergencyAction:
		return dispatchEmergency(a.Op)
	case catalog.DetectAction:
		return dispatchDetect(a.Op)
	case catalog.VoiceSetting:
		switch a.Gender {
		case "male", "female":
			return Outcome{
				Feedback: "Changing voice to " + a.Gender,
				Route:    catalog.RouteSettings,
				Signals:  []Signal{{Kind: SetVoice, Value: a.Gender}},
				Handled:  true,
			}
		}
	case catalog.VolumeSetting:
		var feedback string
		switch a.Step {
		case catalog.VolumeUp:
			feedback = "Increasing volume"
		case catalog.VolumeDown:
			feedback = "Decreasing volume"
		default:
			return unhandled
		}
		return Outcome{
			Feedback: feedback,
			Route:    catalog.RouteSettings,
			Signals:  []Signal{{Kind: AdjustVolume, Value: string(a.Step)}},
			Handled:  true,
		}
	}

	return unhandled
}

func dispatchEmergency(op catalog.EmergencyOp) Outcome {
	switch op {
	case catalog.EmergencyCall:
		return Outcome{Feedback: "Opening emergency calling interface", Route: catalog.RouteEmergency, Handled: true}
	case catalog.EmergencyMessage:
		return Outcome{Feedback: "Opening emergency messaging interface", Route: catalog.RouteEmergency, Handled: true}
	case catalog.EmergencyLocation:
		return Outcome{
			Feedback: "Sharing your current location",
			Signals:  []Signal{{Kind: ShareLocation}},
			Handled:  true,
		}
	default:
		return unhandled
	}
}

var detectFeedback = map[catalog.DetectOp]string{
	catalog.DetectScene:   "Analyzing the scene in front of you",
	catalog.DetectObjects: "Identifying objects in your view",
	catalog.DetectText:    "Reading text in the view",
	catalog.DetectDepth:   "Measuring distances to objects",
}

func dispatchDetect(op catalog.DetectOp) Outcome {
	feedback, ok := detectFeedback[op]
	if !ok {
		return unhandled
	}
	return Outcome{Feedback: feedback, Route: catalog.RouteLiveVision, Handled: true}
}
