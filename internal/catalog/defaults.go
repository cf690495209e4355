package catalog

const (
	RouteHome          = "/"
	RouteLiveVision    = "/live-vision"
	RouteWhatsAround   = "/whats-around"
	RouteNavigation    = "/navigation"
	RouteEmergency     = "/emergency"
	RouteContacts      = "/contacts"
	RouteSettings      = "/settings"
	RouteVoiceCommands = "/voice-commands"
	RouteHistory       = "/history"
	RouteTutorial      = "/tutorial"
)

// Specific commands come before broader ones sharing a word with them
// ("call emergency" before "emergency", "help commands" before "help",
// "female" before "male"), so each pattern resolves to its own entry.
var defaultDefinitions = []Definition{
	{[]string{"go home", "open home", "home page"}, NavigateTo{RouteHome}, "Go to home page", "navigation"},
	{[]string{"open live vision", "start camera", "live vision"}, NavigateTo{RouteLiveVision}, "Open live vision camera", "navigation"},
	{[]string{"what's around me", "describe surroundings", "scan area"}, NavigateTo{RouteWhatsAround}, "Scan surrounding area", "navigation"},
	{[]string{"open navigation", "navigate", "directions"}, NavigateTo{RouteNavigation}, "Open navigation", "navigation"},

	{[]string{"call emergency", "emergency call", "call 911"}, EmergencyAction{EmergencyCall}, "Make emergency call", "emergency"},
	{[]string{"send emergency message", "text for help", "emergency text"}, EmergencyAction{EmergencyMessage}, "Send emergency message", "emergency"},
	{[]string{"share my location", "send location", "where am i"}, EmergencyAction{EmergencyLocation}, "Share current location", "emergency"},

	{[]string{"voice commands", "help commands", "what can you do"}, NavigateTo{RouteVoiceCommands}, "Show voice commands list", "navigation"},
	{[]string{"emergency", "help", "call for help"}, NavigateTo{RouteEmergency}, "Open emergency options", "emergency"},
	{[]string{"open contacts", "show contacts", "my contacts"}, NavigateTo{RouteContacts}, "Open contacts list", "navigation"},
	{[]string{"open settings", "change settings", "preferences"}, NavigateTo{RouteSettings}, "Open settings", "navigation"},
	{[]string{"show history", "previous interactions", "history"}, NavigateTo{RouteHistory}, "Show interaction history", "navigation"},
	{[]string{"start tutorial", "how to use", "tutorial"}, NavigateTo{RouteTutorial}, "Start tutorial mode", "navigation"},

	{[]string{"what do you see", "describe this", "tell me what's there"}, DetectAction{DetectScene}, "Describe current scene", "detection"},
	{[]string{"find objects", "what objects", "identify items"}, DetectAction{DetectObjects}, "Identify objects in view", "detection"},
	{[]string{"read text", "what does it say", "read this"}, DetectAction{DetectText}, "Read text in view", "detection"},
	{[]string{"how far", "distance", "depth"}, DetectAction{DetectDepth}, "Measure distance to objects", "detection"},

	{[]string{"change voice to female", "female voice"}, VoiceSetting{"female"}, "Change to female voice", "settings"},
	{[]string{"change voice to male", "male voice"}, VoiceSetting{"male"}, "Change to male voice", "settings"},
	{[]string{"increase volume", "louder", "volume up"}, VolumeSetting{VolumeUp}, "Increase volume", "settings"},
	{[]string{"decrease volume", "quieter", "volume down"}, VolumeSetting{VolumeDown}, "Decrease volume", "settings"},
}

// Default returns the built-in command set.
func Default() *Catalog {
	c, err := New(defaultDefinitions...)
	if err != nil {
		panic("catalog: invalid default definitions: " + err.Error())
	}
	return c
}
