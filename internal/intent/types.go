package intent

// #region media-type

// MediaType names a media artifact the user may ask for. The empty value
// means "no explicit media request".
type MediaType string

const (
	MediaNone  MediaType = ""
	MediaPhoto MediaType = "photo"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// #endregion media-type

// #region intent

// Tone holds independent tone flags; more than one may be set.
type Tone struct {
	Flirty    bool `json:"flirty"`
	Emotional bool `json:"emotional"`
	Angry     bool `json:"angry"`
}

// Intent is derived once per message and never modified afterwards.
type Intent struct {
	WantsPhoto        bool      `json:"wants_photo"`
	WantsAudio        bool      `json:"wants_audio"`
	Joking            bool      `json:"joking"`
	Tone              Tone      `json:"tone"`
	ExplicitMediaType MediaType `json:"explicit_media_type,omitempty"`
}

// Options carries per-request classification hints.
type Options struct {
	Language string
}

// #endregion intent

// #region media-intent

// MediaIntent is the output of the regex-based media classifier.
// Prompt is empty when nothing matched.
type MediaIntent struct {
	WantsMedia bool      `json:"wants_media"`
	Type       MediaType `json:"type,omitempty"`
	Prompt     string    `json:"prompt,omitempty"`
}

// #endregion media-intent
