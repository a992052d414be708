package emotion

// Label is the canonical emotion label used by the moderation policy.
// Upstream classifiers speak their own vocabularies; Normalize folds
// them into this set before any policy decision is made.
//
// Angry and Sad come from the speech model, Sadness, Fear, Joy and
// Surprise from the text model. The text model's "anger" is an alias
// of Angry, so the same canonical label drives escalation no matter
// which model saw the message. Sad (vocal tone) and Sadness (textual
// sentiment) stay distinct: a sad voice earns empathy, a sad text
// additionally counts toward the warning ledger.
type Label string

const (
	Neutral  Label = "neutral"
	Sad      Label = "sad"
	Angry    Label = "angry"
	Positive Label = "positive"
	Sadness  Label = "sadness"
	Fear     Label = "fear"
	Joy      Label = "joy"
	Surprise Label = "surprise"
	Other    Label = "other"
	Unknown  Label = "unknown"
)

// Source identifies which classifier produced a raw label.
type Source string

const (
	SourceText  Source = "text"
	SourceAudio Source = "audio"
)

// textVocab maps the text emotion model's sentence-level labels.
var textVocab = map[string]Label{
	"joy":      Joy,
	"love":     Joy,
	"sadness":  Sadness,
	"anger":    Angry,
	"fear":     Fear,
	"surprise": Surprise,
	"neutral":  Neutral,
}

// audioVocab maps the speech emotion model's five-class output.
var audioVocab = map[string]Label{
	"neutral":  Neutral,
	"angry":    Angry,
	"positive": Positive,
	"sad":      Sad,
	"other":    Other,
}

// Normalize converts a classifier-native label into the canonical set.
// Unrecognized labels become Unknown rather than silently passing
// through, so a model vocabulary change cannot leak raw labels into
// the policy.
func Normalize(source Source, raw string) Label {
	var vocab map[string]Label
	switch source {
	case SourceText:
		vocab = textVocab
	case SourceAudio:
		vocab = audioVocab
	default:
		return Unknown
	}
	if label, ok := vocab[raw]; ok {
		return label
	}
	return Unknown
}

// ReplyWorthy reports whether the label qualifies for an empathetic
// reply, cooldown permitting.
func ReplyWorthy(label Label) bool {
	switch label {
	case Sad, Angry, Positive:
		return true
	}
	return false
}

// Negative reports whether the label accrues a warning.
func Negative(label Label) bool {
	switch label {
	case Angry, Fear, Sadness:
		return true
	}
	return false
}

// Pleasant reports whether the label counts toward the positive side
// of a user's mood statistics.
func Pleasant(label Label) bool {
	switch label {
	case Positive, Joy, Surprise:
		return true
	}
	return false
}

// Unpleasant is the mood-statistics counterpart of Pleasant. Unlike
// Negative it also counts a sad vocal tone, which earns empathy but
// no warning.
func Unpleasant(label Label) bool {
	return Negative(label) || label == Sad
}
