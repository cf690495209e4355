package nlu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voxguide/internal/catalog"
	"voxguide/internal/nlu"
)

func def(a catalog.Action, desc string) catalog.Definition {
	return catalog.Definition{Patterns: []string{"x"}, Action: a, Description: desc}
}

func TestDispatch(t *testing.T) {
	cases := []struct {
		name string
		def  catalog.Definition
		want nlu.Outcome
	}{
		{
			name: "navigate",
			def:  def(catalog.NavigateTo{Route: "/"}, "Go to home page"),
			want: nlu.Outcome{Feedback: "Opening go to home page", Route: "/", Handled: true},
		},
		{
			name: "emergency call",
			def:  def(catalog.EmergencyAction{Op: catalog.EmergencyCall}, "Make emergency call"),
			want: nlu.Outcome{Feedback: "Opening emergency calling interface", Route: "/emergency", Handled: true},
		},
		{
			name: "emergency message",
			def:  def(catalog.EmergencyAction{Op: catalog.EmergencyMessage}, "Send emergency message"),
			want: nlu.Outcome{Feedback: "Opening emergency messaging interface", Route: "/emergency", Handled: true},
		},
		{
			name: "emergency location",
			def:  def(catalog.EmergencyAction{Op: catalog.EmergencyLocation}, "Share current location"),
			want: nlu.Outcome{
				Feedback: "Sharing your current location",
				Signals:  []nlu.Signal{{Kind: nlu.ShareLocation}},
				Handled:  true,
			},
		},
		{
			name: "detect scene",
			def:  def(catalog.DetectAction{Op: catalog.DetectScene}, "Describe current scene"),
			want: nlu.Outcome{Feedback: "Analyzing the scene in front of you", Route: "/live-vision", Handled: true},
		},
		{
			name: "detect objects",
			def:  def(catalog.DetectAction{Op: catalog.DetectObjects}, "Identify objects"),
			want: nlu.Outcome{Feedback: "Identifying objects in your view", Route: "/live-vision", Handled: true},
		},
		{
			name: "detect text",
			def:  def(catalog.DetectAction{Op: catalog.DetectText}, "Read text"),
			want: nlu.Outcome{Feedback: "Reading text in the view", Route: "/live-vision", Handled: true},
		},
		{
			name: "detect depth",
			def:  def(catalog.DetectAction{Op: catalog.DetectDepth}, "Measure distance"),
			want: nlu.Outcome{Feedback: "Measuring distances to objects", Route: "/live-vision", Handled: true},
		},
		{
			name: "voice",
			def:  def(catalog.VoiceSetting{Gender: "male"}, "Change to male voice"),
			want: nlu.Outcome{
				Feedback: "Changing voice to male",
				Route:    "/settings",
				Signals:  []nlu.Signal{{Kind: nlu.SetVoice, Value: "male"}},
				Handled:  true,
			},
		},
		{
			name: "volume up",
			def:  def(catalog.VolumeSetting{Step: catalog.VolumeUp}, "Increase volume"),
			want: nlu.Outcome{
				Feedback: "Increasing volume",
				Route:    "/settings",
				Signals:  []nlu.Signal{{Kind: nlu.AdjustVolume, Value: "up"}},
				Handled:  true,
			},
		},
		{
			name: "volume down",
			def:  def(catalog.VolumeSetting{Step: catalog.VolumeDown}, "Decrease volume"),
			want: nlu.Outcome{
				Feedback: "Decreasing volume",
				Route:    "/settings",
				Signals:  []nlu.Signal{{Kind: nlu.AdjustVolume, Value: "down"}},
				Handled:  true,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nlu.Dispatch(tc.def))
		})
	}
}

func TestDispatch_UnhandledOperands(t *testing.T) {
	actions := []catalog.Action{
		catalog.GeneralAction{Token: "general:joke"},
		catalog.EmergencyAction{Op: "flare"},
		catalog.DetectAction{Op: "faces"},
		catalog.VoiceSetting{Gender: "robot"},
		catalog.VolumeSetting{Step: "sideways"},
		catalog.SettingsAction{Key: "speed", Value: "fast"},
	}

	for _, a := range actions {
		t.Run(a.String(), func(t *testing.T) {
			out := nlu.Dispatch(def(a, "whatever"))
			assert.Equal(t, nlu.NotImplementedFeedback, out.Feedback)
			assert.Empty(t, out.Route)
			assert.Empty(t, out.Signals)
			assert.False(t, out.Handled)
		})
	}
}
