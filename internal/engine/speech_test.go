package engine_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxguide/internal/engine"
	"voxguide/internal/logging"
)

// gatedSpeaker blocks every Speak until release is closed, like a
// synthesizer playing audio synchronously.
type gatedSpeaker struct {
	release chan struct{}
	started chan string

	mu     sync.Mutex
	spoken []string
}

func newGatedSpeaker() *gatedSpeaker {
	return &gatedSpeaker{release: make(chan struct{}), started: make(chan string, 16)}
}

func (g *gatedSpeaker) Speak(text string, _ engine.Voice) error {
	g.started <- text
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spoken = append(g.spoken, text)
	return nil
}

func (g *gatedSpeaker) Spoken() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.spoken...)
}

func TestSpeechQueue_ReturnsBeforePlayback(t *testing.T) {
	g := newGatedSpeaker()
	q := engine.NewSpeechQueue(g, 4, logging.NewNop())

	require.NoError(t, q.Speak("one", engine.DefaultVoice))
	require.NoError(t, q.Speak("two", engine.DefaultVoice))
	require.NoError(t, q.Speak("", engine.DefaultVoice))

	select {
	case text := <-g.started:
		assert.Equal(t, "one", text)
	case <-time.After(time.Second):
		t.Fatal("worker did not start speaking")
	}

	close(g.release)
	require.Eventually(t, func() bool { return len(g.Spoken()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"one", "two"}, g.Spoken())
	require.NoError(t, q.Close())
}

func TestSpeechQueue_Full(t *testing.T) {
	g := newGatedSpeaker()
	q := engine.NewSpeechQueue(g, 1, logging.NewNop())

	require.NoError(t, q.Speak("playing", engine.DefaultVoice))
	<-g.started
	require.NoError(t, q.Speak("queued", engine.DefaultVoice))
	assert.ErrorIs(t, q.Speak("dropped", engine.DefaultVoice), engine.ErrSpeechQueueFull)

	close(g.release)
	require.NoError(t, q.Close())
}

func TestSpeechQueue_CloseDropsPending(t *testing.T) {
	g := newGatedSpeaker()
	q := engine.NewSpeechQueue(g, 4, logging.NewNop())

	require.NoError(t, q.Speak("playing", engine.DefaultVoice))
	<-g.started
	require.NoError(t, q.Speak("pending", engine.DefaultVoice))

	closed := make(chan struct{})
	go func() {
		_ = q.Close()
		close(closed)
	}()

	// Close waits for the utterance in progress
	select {
	case <-closed:
		t.Fatal("Close returned while speech was playing")
	case <-time.After(50 * time.Millisecond):
	}

	close(g.release)
	<-closed
	assert.Equal(t, []string{"playing"}, g.Spoken())
	assert.ErrorIs(t, q.Speak("late", engine.DefaultVoice), engine.ErrSpeechQueueClosed)
	require.NoError(t, q.Close())
}
