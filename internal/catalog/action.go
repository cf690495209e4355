package catalog

import (
	"fmt"
	"strings"
)

type Category int

const (
	General Category = iota
	Navigate
	Emergency
	Detect
	Settings
)

func (c Category) String() string {
	switch c {
	case Navigate:
		return "navigate"
	case Emergency:
		return "emergency"
	case Detect:
		return "detect"
	case Settings:
		return "settings"
	default:
		return "general"
	}
}

// Action is the closed set of things a command can do. The concrete
// types below are the only implementations.
type Action interface {
	Category() Category
	String() string
}

type EmergencyOp string

const (
	EmergencyCall     EmergencyOp = "call"
	EmergencyMessage  EmergencyOp = "message"
	EmergencyLocation EmergencyOp = "location"
)

type DetectOp string

const (
	DetectScene   DetectOp = "scene"
	DetectObjects DetectOp = "objects"
	DetectText    DetectOp = "text"
	DetectDepth   DetectOp = "depth"
)

type VolumeStep string

const (
	VolumeUp   VolumeStep = "up"
	VolumeDown VolumeStep = "down"
)

// NavigateTo opens a route.
type NavigateTo struct {
	Route string
}

type EmergencyAction struct {
	Op EmergencyOp
}

type DetectAction struct {
	Op DetectOp
}

// VoiceSetting switches the speaking voice; Gender is "male" or "female".
type VoiceSetting struct {
	Gender string
}

type VolumeSetting struct {
	Step VolumeStep
}

// SettingsAction carries a settings operand that is neither voice nor volume.
type SettingsAction struct {
	Key   string
	Value string
}

// GeneralAction is everything the engine has no handler for.
type GeneralAction struct {
	Token string
}

func (NavigateTo) Category() Category      { return Navigate }
func (EmergencyAction) Category() Category { return Emergency }
func (DetectAction) Category() Category    { return Detect }
func (VoiceSetting) Category() Category    { return Settings }
func (VolumeSetting) Category() Category   { return Settings }
func (SettingsAction) Category() Category  { return Settings }
func (GeneralAction) Category() Category   { return General }

func (a NavigateTo) String() string      { return "navigate:" + a.Route }
func (a EmergencyAction) String() string { return "emergency:" + string(a.Op) }
func (a DetectAction) String() string    { return "detect:" + string(a.Op) }
func (a VoiceSetting) String() string    { return "settings:voice:" + a.Gender }
func (a VolumeSetting) String() string   { return "settings:volume:" + string(a.Step) }
func (a SettingsAction) String() string  { return "settings:" + a.Key + ":" + a.Value }
func (a GeneralAction) String() string   { return a.Token }

// ParseAction decodes the textual "category:operand" form used in catalog
// files, e.g. "navigate:/live-vision", "emergency:call",
// "settings:volume:up". Unknown categories become GeneralAction and
// unknown operands are kept so they fail over at dispatch time.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty action")
	}

	kind, rest, _ := strings.Cut(s, ":")
	switch strings.ToLower(kind) {
	case "navigate":
		if rest == "" {
			return nil, fmt.Errorf("action %q: missing route", s)
		}
		return NavigateTo{Route: rest}, nil

	case "emergency":
		return EmergencyAction{Op: EmergencyOp(strings.ToLower(rest))}, nil

	case "detect":
		return DetectAction{Op: DetectOp(strings.ToLower(rest))}, nil

	case "settings":
		key, value, _ := strings.Cut(strings.ToLower(rest), ":")
		switch key {
		case "voice":
			return VoiceSetting{Gender: value}, nil
		case "volume":
			return VolumeSetting{Step: VolumeStep(value)}, nil
		default:
			return SettingsAction{Key: key, Value: value}, nil
		}

	default:
		return GeneralAction{Token: s}, nil
	}
}
