package intent

import "regexp"

// #region patterns

// desire matches a request verb; the media noun must follow within a few words.
const desire = `(mandami|mandamene|inviami|manda|fammi|voglio|vorrei|posso avere|send|show|give|want|can i (see|have|get)|let me (see|hear))`

var (
	photoPattern = regexp.MustCompile(`(?i)\b` + desire + `\b.{0,40}?\b(foto|photo|photos|pic|pics|picture|selfie|immagine|image)\b`)
	videoPattern = regexp.MustCompile(`(?i)\b` + desire + `\b.{0,40}?\b(video|videos|clip|filmato)\b`)
	audioPattern = regexp.MustCompile(`(?i)\b` + desire + `\b.{0,40}?\b(audio|vocale|vocali|voice|voce)\b`)
)

// clarifyingPrompts are sent back when a request needs more detail.
var clarifyingPrompts = map[MediaType]string{
	MediaPhoto: "Che tipo di foto vorresti? Dimmi dove mi immagini e cosa sto facendo.",
	MediaVideo: "Che video ti piacerebbe vedere? Descrivimi la scena.",
	MediaAudio: "Vuoi un mio vocale? Dimmi cosa vorresti sentirmi dire.",
}

// #endregion patterns

// #region media-classifier

// MediaClassifier detects media requests with regexes. Priority when several
// match: photo, then video, then audio.
type MediaClassifier struct{}

// NewMediaClassifier returns a ready classifier.
func NewMediaClassifier() *MediaClassifier {
	return &MediaClassifier{}
}

// Classify returns the detected media request. Empty text is inert.
func (m *MediaClassifier) Classify(text string) MediaIntent {
	if text == "" {
		return MediaIntent{}
	}
	var kind MediaType
	switch {
	case photoPattern.MatchString(text):
		kind = MediaPhoto
	case videoPattern.MatchString(text):
		kind = MediaVideo
	case audioPattern.MatchString(text):
		kind = MediaAudio
	default:
		return MediaIntent{}
	}
	return MediaIntent{
		WantsMedia: true,
		Type:       kind,
		Prompt:     clarifyingPrompts[kind],
	}
}

// #endregion media-classifier
