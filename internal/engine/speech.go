package engine

import (
	"errors"
	log "log/slog"
	"sync"
)

var (
	ErrSpeechQueueFull   = errors.New("speech queue full")
	ErrSpeechQueueClosed = errors.New("speech queue closed")
)

// SpeakerFunc adapts a function to the Speaker interface.
type SpeakerFunc func(text string, v Voice) error

func (f SpeakerFunc) Speak(text string, v Voice) error { return f(text, v) }

type queued struct {
	text  string
	voice Voice
}

// SpeechQueue is a Speaker that hands text to a single worker and returns
// at once. Queued text is spoken in order by the wrapped speaker, which may
// block for as long as playback lasts.
type SpeechQueue struct {
	next Speaker
	log  *log.Logger

	mu     sync.Mutex
	closed bool
	items  chan queued
	quit   chan struct{}
	done   chan struct{}
}

func NewSpeechQueue(next Speaker, size int, logger *log.Logger) *SpeechQueue {
	if size <= 0 {
		size = 8
	}
	if logger == nil {
		logger = log.Default()
	}

	q := &SpeechQueue{
		next:  next,
		log:   logger,
		items: make(chan queued, size),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

// Speak enqueues text. A full queue drops it and reports ErrSpeechQueueFull.
func (q *SpeechQueue) Speak(text string, v Voice) error {
	if text == "" {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrSpeechQueueClosed
	}
	select {
	case q.items <- queued{text: text, voice: v}:
		return nil
	default:
		return ErrSpeechQueueFull
	}
}

// Close drops queued text and waits for the utterance in progress.
func (q *SpeechQueue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.quit)
		close(q.items)
	}
	q.mu.Unlock()

	<-q.done
	return nil
}

func (q *SpeechQueue) loop() {
	defer close(q.done)

	for u := range q.items {
		select {
		case <-q.quit:
			continue
		default:
		}
		if err := q.next.Speak(u.text, u.voice); err != nil {
			q.log.Error("Failed to voice out", "err", err)
		}
	}
}
