// Package tts speaks engine feedback through espeak-ng.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static int
espeak_init(void)
{
	return espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
}

static int
espeak_voice(const char *lang, int gender)
{
	espeak_VOICE specs;
	memset(&specs, 0, sizeof(specs));
	specs.languages = lang;
	specs.gender = gender;
	return espeak_SetVoiceByProperties(&specs);
}

static int
espeak_say(const char *text, int rate, int pitch, int volume)
{
	if (!text)
	{ return -1; }

	espeak_SetParameter(espeakRATE, rate, 0);
	espeak_SetParameter(espeakPITCH, pitch, 0);
	espeak_SetParameter(espeakVOLUME, volume, 0);

	int rc = espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	if (rc != EE_OK)
	{ return rc; }

	return espeak_Synchronize();
}
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"unsafe"

	"voxguide/internal/engine"
	"voxguide/internal/nlu"
)

var ErrClosed = errors.New("speaker closed")

const queueSize = 8

// Ducker lowers other audio while speech is playing.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Options struct {
	Language string
	Gender   string
	Ducker   Ducker
}

// Espeak is an engine.Speaker and engine.SignalSink. Speak queues text for
// a single playback worker and returns without waiting for the audio.
type Espeak struct {
	queue *engine.SpeechQueue

	mu     sync.Mutex
	clang  *C.char
	voice  settings
	duck   Ducker
	closed bool
}

func New(opt Options) (*Espeak, error) {
	if opt.Language == "" {
		opt.Language = "en"
	}

	if rc := C.espeak_init(); rc < 0 {
		return nil, fmt.Errorf("espeak_Initialize failed: %d", int(rc))
	}

	e := &Espeak{
		clang: C.CString(opt.Language),
		voice: newSettings(opt.Gender),
		duck:  opt.Ducker,
	}
	e.queue = engine.NewSpeechQueue(engine.SpeakerFunc(e.say), queueSize, log.Default())
	return e, nil
}

func (e *Espeak) Speak(text string, v engine.Voice) error {
	return e.queue.Speak(text, v)
}

// say plays text synchronously, ducking other audio around it. Only the
// queue worker calls it, so espeak itself needs no lock.
func (e *Espeak) say(text string, v engine.Voice) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	gender := e.voice.gender
	p := e.voice.params(v)
	e.mu.Unlock()

	if rc := C.espeak_voice(e.clang, C.int(gender)); rc != 0 {
		log.Warn("Failed to select voice", "gender", gender, "rc", int(rc))
	}

	if e.duck != nil {
		ctx := context.Background()
		if err := e.duck.Duck(ctx); err != nil {
			log.Warn("Failed to duck audio", "err", err)
		}
		defer func() {
			if err := e.duck.Restore(ctx); err != nil {
				log.Warn("Failed to restore audio", "err", err)
			}
		}()
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	rc := C.espeak_say(ctext, C.int(p.rate), C.int(p.pitch), C.int(p.volume))
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}

// Signal applies voice and volume settings to later speech. Other signals
// are ignored.
func (e *Espeak) Signal(s nlu.Signal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voice.apply(s)
}

func (e *Espeak) Close() error {
	_ = e.queue.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	C.espeak_Terminate()
	C.free(unsafe.Pointer(e.clang))
	return nil
}
