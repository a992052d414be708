package classifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/emotion"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(textURL, audioURL string) Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewHTTPClassifier(&config.ClassifierConfig{
		Text:           config.EndpointConfig{BaseURL: textURL, Model: "text-model"},
		Audio:          config.EndpointConfig{BaseURL: audioURL, Model: "audio-model"},
		RequestTimeout: 2 * time.Second,
		MaxRetries:     1,
	}, log)
}

func TestClassifyTextNormalizesLabel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/classify", r.URL.Path)
		assert.Equal("application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"label":"anger","score":0.91}`))
	}))
	defer server.Close()

	svc := newTestClassifier(server.URL, server.URL)
	result, err := svc.ClassifyText(context.Background(), "grr")
	require.NoError(err)
	assert.Equal(emotion.Angry, result.Label)
	assert.InDelta(0.91, result.Confidence, 1e-9)
}

func TestClassifyAudioNormalizesLabel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"label":"sad","score":0.82}`))
	}))
	defer server.Close()

	svc := newTestClassifier(server.URL, server.URL)
	result, err := svc.ClassifyAudio(context.Background(), []byte{0x01, 0x02})
	require.NoError(err)
	assert.Equal(emotion.Sad, result.Label)
}

func TestClassifyClientErrorNotRetried(t *testing.T) {
	assert := assert.New(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewHTTPClassifier(&config.ClassifierConfig{
		Text:           config.EndpointConfig{BaseURL: server.URL},
		RequestTimeout: 2 * time.Second,
		MaxRetries:     3,
	}, log)

	_, err := svc.ClassifyText(context.Background(), "hi")
	assert.ErrorIs(err, ErrClassification)
	assert.Equal(int32(1), atomic.LoadInt32(&calls))
}

func TestClassifyServerErrorWrapped(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newTestClassifier(server.URL, server.URL)
	_, err := svc.ClassifyText(context.Background(), "hi")
	assert.ErrorIs(err, ErrClassification)
}

func TestClassifyUpstreamErrorField(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model loading"}}`))
	}))
	defer server.Close()

	svc := newTestClassifier(server.URL, server.URL)
	_, err := svc.ClassifyText(context.Background(), "hi")
	assert.ErrorIs(err, ErrClassification)
	assert.Contains(err.Error(), "model loading")
}
