package tts

import (
	"fmt"

	"voxguide/internal/catalog"
	"voxguide/internal/engine"
	"voxguide/internal/nlu"
)

// espeak-ng parameter scales
const (
	baseRate   = 175
	minRate    = 80
	maxRate    = 450
	basePitch  = 50
	baseVolume = 100
	maxVolume  = 200

	gainStep = 0.1
	minGain  = 0.2
	maxGain  = 2.0
)

// espeak_VOICE gender values
const (
	genderNone   = 0
	genderMale   = 1
	genderFemale = 2
)

type params struct {
	rate   int
	pitch  int
	volume int
}

type settings struct {
	gender int
	gain   float64
}

func newSettings(gender string) settings {
	s := settings{gain: 1}
	s.gender, _ = parseGender(gender)
	return s
}

func parseGender(g string) (int, bool) {
	switch g {
	case "male":
		return genderMale, true
	case "female":
		return genderFemale, true
	case "":
		return genderNone, true
	default:
		return genderNone, false
	}
}

func (s *settings) apply(sig nlu.Signal) error {
	switch sig.Kind {
	case nlu.SetVoice:
		g, ok := parseGender(sig.Value)
		if !ok {
			return fmt.Errorf("unknown voice %q", sig.Value)
		}
		s.gender = g
	case nlu.AdjustVolume:
		switch catalog.VolumeStep(sig.Value) {
		case catalog.VolumeUp:
			s.gain = min(s.gain+gainStep, maxGain)
		case catalog.VolumeDown:
			s.gain = max(s.gain-gainStep, minGain)
		default:
			return fmt.Errorf("unknown volume step %q", sig.Value)
		}
	}
	return nil
}

func (s settings) params(v engine.Voice) params {
	return params{
		rate:   clampInt(int(baseRate*v.Rate), minRate, maxRate),
		pitch:  clampInt(int(basePitch*v.Pitch), 0, 100),
		volume: clampInt(int(baseVolume*v.Volume*s.gain), 0, maxVolume),
	}
}

func clampInt(x, lo, hi int) int {
	return max(lo, min(x, hi))
}
