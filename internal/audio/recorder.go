package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const SampleRate = 16000

var ErrSilence = errors.New("no speech detected")

// RecordOptions tunes end-of-speech detection.
type RecordOptions struct {
	FrameSize        int           // samples per read, 320 = 20ms
	SilenceThreshRMS float64       // frames above this count as speech
	TrailingSilence  time.Duration // silence after speech that ends the turn
	LeadingSilence   time.Duration // give up if nobody speaks for this long
	MaxLength        time.Duration
}

var DefaultRecordOptions = RecordOptions{
	FrameSize:        320,
	SilenceThreshRMS: 0.015,
	TrailingSilence:  600 * time.Millisecond,
	LeadingSilence:   5 * time.Second,
	MaxLength:        10 * time.Second,
}

type Recorder struct {
	opt RecordOptions
}

func NewRecorder(opt RecordOptions) *Recorder {
	if opt.FrameSize <= 0 {
		opt.FrameSize = DefaultRecordOptions.FrameSize
	}
	if opt.SilenceThreshRMS <= 0 {
		opt.SilenceThreshRMS = DefaultRecordOptions.SilenceThreshRMS
	}
	if opt.TrailingSilence <= 0 {
		opt.TrailingSilence = DefaultRecordOptions.TrailingSilence
	}
	if opt.LeadingSilence <= 0 {
		opt.LeadingSilence = DefaultRecordOptions.LeadingSilence
	}
	if opt.MaxLength <= 0 {
		opt.MaxLength = DefaultRecordOptions.MaxLength
	}
	return &Recorder{opt: opt}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures one utterance from the default input device. It returns
// once the speaker pauses, MaxLength is reached or ctx is done.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, r.opt.FrameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	ep := newEndpointer(r.opt)
	for !ep.done() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}
		ep.push(buf)
	}

	if !ep.speaking {
		return nil, ErrSilence
	}
	return ep.out, nil
}

// endpointer decides when an utterance is over from frame energy alone.
type endpointer struct {
	opt      RecordOptions
	frameDur time.Duration

	out      []float32
	speaking bool
	elapsed  time.Duration
	silence  time.Duration
}

func newEndpointer(opt RecordOptions) *endpointer {
	return &endpointer{
		opt:      opt,
		frameDur: time.Duration(opt.FrameSize) * time.Second / SampleRate,
		out:      make([]float32, 0, SampleRate*3),
	}
}

func (ep *endpointer) push(frame []float32) {
	ep.elapsed += ep.frameDur

	if frameRMS(frame) > ep.opt.SilenceThreshRMS {
		ep.speaking = true
		ep.silence = 0
		ep.out = append(ep.out, frame...)
		return
	}

	if ep.speaking {
		ep.silence += ep.frameDur
		ep.out = append(ep.out, frame...)
	}
}

func (ep *endpointer) done() bool {
	switch {
	case ep.elapsed >= ep.opt.MaxLength:
		return true
	case ep.speaking:
		return ep.silence >= ep.opt.TrailingSilence
	default:
		return ep.elapsed >= ep.opt.LeadingSilence
	}
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
