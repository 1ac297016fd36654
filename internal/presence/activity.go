package presence

// Fixed values the Discord application is configured with. The remote client
// only renders the asset and button when these match the application setup.
const (
	ApplicationID = "1376904142412316812"
	LargeImage    = "radio_icon"
	LargeText     = "Radioss - Internet Radio Player"
	ButtonLabel   = "🔗 Get Radioss"
	ButtonURL     = "https://github.com/DasCanard/radioss/releases"

	detailsPrefix = "📻 "
	statePrefix   = "🎵 "
)

// ActivityType is the Discord activity type shown before the details line.
type ActivityType int

// ActivityListening renders as "Listening to ...".
const ActivityListening ActivityType = 2

// Timestamps holds the start of the displayed elapsed timer in unix seconds.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
}

// Assets describes the images shown next to the activity.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
}

// Button is a call-to-action link rendered under the activity.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Activity is the payload published on every update. It is never persisted.
type Activity struct {
	Details    string       `json:"details,omitempty"`
	State      string       `json:"state,omitempty"`
	Type       ActivityType `json:"type"`
	Timestamps *Timestamps  `json:"timestamps,omitempty"`
	Assets     *Assets      `json:"assets,omitempty"`
	Buttons    []Button     `json:"buttons,omitempty"`
}

// NewActivity builds the listening activity for a station. A nil tags value
// leaves the state line out entirely.
func NewActivity(displayName string, tags *string, start int64) *Activity {
	a := &Activity{
		Details:    detailsPrefix + displayName,
		Type:       ActivityListening,
		Timestamps: &Timestamps{Start: start},
		Assets: &Assets{
			LargeImage: LargeImage,
			LargeText:  LargeText,
		},
		Buttons: []Button{{Label: ButtonLabel, URL: ButtonURL}},
	}
	if tags != nil {
		a.State = statePrefix + *tags
	}
	return a
}
