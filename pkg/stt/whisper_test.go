package stt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Go home", CleanText("  Go home "))
	assert.Equal(t, "", CleanText("[BLANK_AUDIO]"))
	assert.Equal(t, "call emergency", CleanText(" (wind blowing) call  emergency [MUSIC]"))
	assert.Equal(t, "read this", CleanText("*coughs* read this"))
}

func TestTranscriber_Closed(t *testing.T) {
	tr := &Transcriber{}
	_, err := tr.Transcribe(context.Background(), []float32{0})
	assert.Error(t, err)
	assert.NoError(t, tr.Close())
}

func TestNewTranscriber_EmptyPath(t *testing.T) {
	_, err := NewTranscriber("", Options{})
	assert.Error(t, err)
}
