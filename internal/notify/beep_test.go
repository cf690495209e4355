package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxguide/internal/engine"
)

func TestSendArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"--app-name", "voxguide", "--urgency", "normal", "Voice Command Executed", "Go to home page"},
		sendArgs("voxguide", engine.Notice{Title: "Voice Command Executed", Description: "Go to home page"}))

	assert.Equal(t,
		[]string{"--app-name", "voxguide", "--urgency", "critical", "Voice Recognition Not Available"},
		sendArgs("voxguide", engine.Notice{Title: "Voice Recognition Not Available", Severity: engine.SeverityError}))
}

func TestNotify_Desktop(t *testing.T) {
	d, err := New(Options{Desktop: true})
	require.NoError(t, err)

	var calls [][]string
	d.run = func(_ context.Context, name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		return nil
	}

	d.Notify(engine.Notice{Title: "Command Not Recognized", Severity: engine.SeverityError})
	require.NoError(t, d.Close())
	require.Len(t, calls, 1)
	assert.Equal(t, "notify-send", calls[0][0])
	assert.Contains(t, calls[0], "critical")
}

func TestNotify_DesktopDisabled(t *testing.T) {
	d, err := New(Options{})
	require.NoError(t, err)

	var calls int
	d.run = func(context.Context, string, ...string) error {
		calls++
		return nil
	}
	d.Notify(engine.Notice{Title: "Voice Command Executed"})
	require.NoError(t, d.Close())
	assert.Zero(t, calls)
}

func TestNotify_DoesNotWaitForDelivery(t *testing.T) {
	d, err := New(Options{Desktop: true})
	require.NoError(t, err)

	release := make(chan struct{})
	var titles []string
	d.run = func(_ context.Context, _ string, args ...string) error {
		<-release
		titles = append(titles, args[len(args)-1])
		return nil
	}

	start := time.Now()
	d.Notify(engine.Notice{Title: "Voice Command Executed", Description: "Go to home page"})
	d.Notify(engine.Notice{Title: "Command Not Recognized"})
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	require.NoError(t, d.Close())
	assert.Equal(t, []string{"Go to home page", "Command Not Recognized"}, titles)

	// closed notifiers drop notices
	d.Notify(engine.Notice{Title: "late"})
	assert.Len(t, titles, 2)
}

func TestLoadChime_WAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := gowav.NewEncoder(f, 22050, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 22050},
		Data:           make([]int, 2205),
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	buf, err := LoadChime(path)
	require.NoError(t, err)
	assert.InDelta(t, 4410, buf.Len(), 4)
	assert.Equal(t, playbackRate, buf.Format().SampleRate)
}

func TestLoadChime_Errors(t *testing.T) {
	_, err := LoadChime(filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "chime.flac")
	require.NoError(t, os.WriteFile(path, []byte("fLaC"), 0o644))
	_, err = LoadChime(path)
	assert.ErrorContains(t, err, "unsupported chime format")
}
