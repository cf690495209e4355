// Package notify delivers engine notices on the desktop: a short chime per
// severity and a notify-send popup.
package notify

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"voxguide/internal/engine"
)

const playbackRate beep.SampleRate = 44100

// LoadChime decodes an mp3 or wav file into memory at the playback rate.
func LoadChime(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chime: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported chime format: %s", path)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode chime: %w", err)
	}
	defer streamer.Close()

	out := beep.Format{SampleRate: playbackRate, NumChannels: 2, Precision: 2}
	buf := beep.NewBuffer(out)
	buf.Append(beep.Resample(4, format.SampleRate, playbackRate, streamer))
	return buf, nil
}

type Options struct {
	InfoChime  string
	ErrorChime string
	Desktop    bool
	AppName    string
	Timeout    time.Duration
	QueueSize  int
}

// Desktop is an engine.Notifier. Notify hands the notice to a worker and
// returns at once; chimes and popups are delivered in order.
type Desktop struct {
	opt    Options
	chimes map[engine.Severity]*beep.Buffer

	spkOnce sync.Once
	spkErr  error

	mu      sync.Mutex
	closed  bool
	notices chan engine.Notice
	done    chan struct{}

	run func(ctx context.Context, name string, args ...string) error
}

func New(opt Options) (*Desktop, error) {
	if opt.AppName == "" {
		opt.AppName = "voxguide"
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 3 * time.Second
	}
	if opt.QueueSize <= 0 {
		opt.QueueSize = 16
	}

	d := &Desktop{
		opt:    opt,
		chimes: make(map[engine.Severity]*beep.Buffer),
		run:    runCommand,
	}

	for sev, path := range map[engine.Severity]string{
		engine.SeverityInfo:  opt.InfoChime,
		engine.SeverityError: opt.ErrorChime,
	} {
		if path == "" {
			continue
		}
		buf, err := LoadChime(path)
		if err != nil {
			return nil, err
		}
		d.chimes[sev] = buf
	}

	d.notices = make(chan engine.Notice, opt.QueueSize)
	d.done = make(chan struct{})
	go d.loop()
	return d, nil
}

// Notify queues n. When the queue is full the notice is dropped.
func (d *Desktop) Notify(n engine.Notice) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	select {
	case d.notices <- n:
	default:
		log.Warn("Dropped notice, queue full", "title", n.Title)
	}
}

// Close delivers the notices already queued and stops the worker.
func (d *Desktop) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.notices)
	}
	d.mu.Unlock()

	<-d.done
	return nil
}

func (d *Desktop) loop() {
	defer close(d.done)
	for n := range d.notices {
		d.deliver(n)
	}
}

func (d *Desktop) deliver(n engine.Notice) {
	log.Debug("Notice", "title", n.Title, "severity", n.Severity)

	if buf, ok := d.chimes[n.Severity]; ok {
		if err := d.play(buf); err != nil {
			log.Warn("Failed to play chime", "err", err)
		}
	}

	if !d.opt.Desktop {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.opt.Timeout)
	defer cancel()

	if err := d.run(ctx, "notify-send", sendArgs(d.opt.AppName, n)...); err != nil {
		log.Warn("Failed to send desktop notification", "err", err)
	}
}

// play starts the chime and returns without waiting for it to finish.
func (d *Desktop) play(buf *beep.Buffer) error {
	d.spkOnce.Do(func() {
		d.spkErr = speaker.Init(playbackRate, playbackRate.N(time.Second/10))
	})
	if d.spkErr != nil {
		return d.spkErr
	}

	speaker.Play(buf.Streamer(0, buf.Len()))
	return nil
}

func sendArgs(app string, n engine.Notice) []string {
	urgency := "normal"
	if n.Severity == engine.SeverityError {
		urgency = "critical"
	}

	args := []string{"--app-name", app, "--urgency", urgency, n.Title}
	if n.Description != "" {
		args = append(args, n.Description)
	}
	return args
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
