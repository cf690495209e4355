package catalog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxguide/internal/catalog"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		in   string
		want catalog.Action
	}{
		{"navigate:/", catalog.NavigateTo{Route: "/"}},
		{"navigate:/live-vision", catalog.NavigateTo{Route: "/live-vision"}},
		{"emergency:call", catalog.EmergencyAction{Op: catalog.EmergencyCall}},
		{"Emergency:LOCATION", catalog.EmergencyAction{Op: catalog.EmergencyLocation}},
		{"detect:depth", catalog.DetectAction{Op: catalog.DetectDepth}},
		{"settings:voice:male", catalog.VoiceSetting{Gender: "male"}},
		{"settings:volume:down", catalog.VolumeSetting{Step: catalog.VolumeDown}},
		{"settings:speed:fast", catalog.SettingsAction{Key: "speed", Value: "fast"}},
		{"emergency:flare", catalog.EmergencyAction{Op: "flare"}},
		{"dance:now", catalog.GeneralAction{Token: "dance:now"}},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := catalog.ParseAction(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAction_Invalid(t *testing.T) {
	_, err := catalog.ParseAction("  ")
	assert.Error(t, err)

	_, err = catalog.ParseAction("navigate:")
	assert.Error(t, err)
}

func TestActionCategory(t *testing.T) {
	assert.Equal(t, catalog.Navigate, catalog.NavigateTo{Route: "/"}.Category())
	assert.Equal(t, catalog.Emergency, catalog.EmergencyAction{}.Category())
	assert.Equal(t, catalog.Detect, catalog.DetectAction{}.Category())
	assert.Equal(t, catalog.Settings, catalog.VoiceSetting{}.Category())
	assert.Equal(t, catalog.Settings, catalog.VolumeSetting{}.Category())
	assert.Equal(t, catalog.General, catalog.GeneralAction{}.Category())
	assert.Equal(t, "settings", catalog.Settings.String())
}

func TestNew_NormalizesAndKeepsOrder(t *testing.T) {
	c, err := catalog.New(
		catalog.Definition{Patterns: []string{"  Go   HOME "}, Action: catalog.NavigateTo{Route: "/"}, Description: "Home"},
		catalog.Definition{Patterns: []string{"", "Help"}, Action: catalog.NavigateTo{Route: "/emergency"}, Description: "Help"},
	)
	require.NoError(t, err)

	defs := c.List()
	require.Len(t, defs, 2)
	assert.Equal(t, []string{"go home"}, defs[0].Patterns)
	assert.Equal(t, []string{"help"}, defs[1].Patterns)
}

func TestNew_Rejects(t *testing.T) {
	_, err := catalog.New()
	assert.ErrorIs(t, err, catalog.ErrEmptyCatalog)

	_, err = catalog.New(catalog.Definition{Patterns: []string{"x"}, Description: "no action"})
	assert.Error(t, err)

	_, err = catalog.New(catalog.Definition{Patterns: []string{" "}, Action: catalog.GeneralAction{}, Description: "blank"})
	assert.Error(t, err)

	_, err = catalog.New(catalog.Definition{Patterns: []string{"x"}, Action: catalog.GeneralAction{}})
	assert.Error(t, err)
}

func TestList_ReturnsCopy(t *testing.T) {
	c := catalog.Default()
	defs := c.List()
	defs[0].Patterns[0] = "mutated"
	defs[0].Description = "mutated"

	fresh := c.List()
	assert.Equal(t, "go home", fresh[0].Patterns[0])
	assert.Equal(t, "Go to home page", fresh[0].Description)
}

func TestDefault(t *testing.T) {
	c := catalog.Default()
	assert.Equal(t, 21, c.Len())

	names, groups := c.Groups()
	assert.Equal(t, []string{"navigation", "emergency", "detection", "settings"}, names)
	assert.Len(t, groups["detection"], 4)
}

func TestLoad(t *testing.T) {
	doc := `
commands:
  - patterns: ["Turn On Lights", "lights on"]
    action: general:lights
    description: Lights on
    group: home
  - patterns: ["go home"]
    action: navigate:/
    description: Go to home page
`
	c, err := catalog.Load(strings.NewReader(doc))
	require.NoError(t, err)

	defs := c.List()
	require.Len(t, defs, 2)
	assert.Equal(t, []string{"turn on lights", "lights on"}, defs[0].Patterns)
	assert.Equal(t, catalog.GeneralAction{Token: "general:lights"}, defs[0].Action)
	assert.Equal(t, catalog.NavigateTo{Route: "/"}, defs[1].Action)
}

func TestLoad_Errors(t *testing.T) {
	_, err := catalog.Load(strings.NewReader(""))
	assert.ErrorIs(t, err, catalog.ErrEmptyCatalog)

	_, err = catalog.Load(strings.NewReader("commands:\n  - patterns: [x]\n    action: ''\n    description: d\n"))
	assert.Error(t, err)

	_, err = catalog.Load(strings.NewReader("commandz: []\n"))
	assert.Error(t, err)
}
