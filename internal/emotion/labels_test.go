package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTextVocab(t *testing.T) {
	assert := assert.New(t)

	cases := map[string]Label{
		"joy":      Joy,
		"love":     Joy,
		"sadness":  Sadness,
		"anger":    Angry,
		"fear":     Fear,
		"surprise": Surprise,
		"neutral":  Neutral,
		"guilt":    Unknown,
		"":         Unknown,
	}
	for raw, want := range cases {
		assert.Equal(want, Normalize(SourceText, raw), "raw %q", raw)
	}
}

func TestNormalizeAudioVocab(t *testing.T) {
	assert := assert.New(t)

	cases := map[string]Label{
		"neutral":  Neutral,
		"angry":    Angry,
		"positive": Positive,
		"sad":      Sad,
		"other":    Other,
		"mystery":  Unknown,
	}
	for raw, want := range cases {
		assert.Equal(want, Normalize(SourceAudio, raw), "raw %q", raw)
	}
}

// Anger from either model lands on the same canonical label, so both
// text and voice aggression accrue warnings.
func TestAngerAliasedAcrossSources(t *testing.T) {
	assert := assert.New(t)

	audio := Normalize(SourceAudio, "angry")
	text := Normalize(SourceText, "anger")
	assert.Equal(audio, text)
	assert.True(Negative(audio))
	assert.True(ReplyWorthy(audio))
}

// A sad voice earns empathy but no warning; a sad text earns a warning
// but no empathetic reply.
func TestSadVersusSadness(t *testing.T) {
	assert := assert.New(t)

	assert.True(ReplyWorthy(Sad))
	assert.False(Negative(Sad))

	assert.False(ReplyWorthy(Sadness))
	assert.True(Negative(Sadness))
}

func TestReplyMessageID(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(MsgReplySad, ReplyMessageID(Sad))
	assert.Equal(MsgReplyAngry, ReplyMessageID(Angry))
	assert.Equal(MsgReplyPositive, ReplyMessageID(Positive))

	for _, label := range []Label{Neutral, Other, Unknown, Fear, Sadness, Joy, Surprise} {
		assert.Empty(ReplyMessageID(label), "label %s", label)
	}
}

func TestMoodPolarity(t *testing.T) {
	assert := assert.New(t)

	assert.True(Pleasant(Joy))
	assert.True(Pleasant(Surprise))
	assert.True(Pleasant(Positive))
	assert.False(Pleasant(Neutral))

	assert.True(Unpleasant(Sad))
	assert.True(Unpleasant(Sadness))
	assert.True(Unpleasant(Angry))
	assert.True(Unpleasant(Fear))
	assert.False(Unpleasant(Other))
}
