package listen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"voxguide/internal/audio"
	"voxguide/pkg/audioconv"
)

// Source captures one utterance as 16 kHz mono PCM.
type Source interface {
	Record(ctx context.Context) ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}

// AudioListener records from a Source and transcribes the result.
type AudioListener struct {
	Source      Source
	Transcriber Transcriber
}

func (a AudioListener) Listen(ctx context.Context) (string, error) {
	pcm, err := a.Source.Record(ctx)
	if errors.Is(err, audio.ErrSilence) {
		return "", ErrNoSpeech
	}
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}

	text, err := a.Transcriber.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}

// FileSource plays back audio files in order, one per turn, looping when
// Loop is set. Useful for demos and for machines without a microphone.
type FileSource struct {
	mu    sync.Mutex
	paths []string
	next  int
	loop  bool
	opt   audioconv.Options
}

func NewFileSource(paths []string, loop bool) *FileSource {
	return &FileSource{
		paths: append([]string(nil), paths...),
		loop:  loop,
		opt:   audioconv.Options{MaxSamples: audio.SampleRate * 30},
	}
}

func (f *FileSource) Record(ctx context.Context) ([]float32, error) {
	f.mu.Lock()
	if f.next >= len(f.paths) {
		if !f.loop || len(f.paths) == 0 {
			f.mu.Unlock()
			return nil, io.EOF
		}
		f.next = 0
	}
	path := f.paths[f.next]
	f.next++
	f.mu.Unlock()

	return audioconv.DecodeFile(ctx, path, f.opt)
}

// TextListener hands typed text to the session as if it had been spoken.
type TextListener struct {
	ch chan string
}

func NewTextListener() *TextListener {
	return &TextListener{ch: make(chan string, 1)}
}

// Feed queues text for the next turn. It blocks while a previous text is
// still waiting to be heard.
func (t *TextListener) Feed(ctx context.Context, text string) error {
	select {
	case t.ch <- text:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TextListener) Listen(ctx context.Context) (string, error) {
	select {
	case text := <-t.ch:
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
