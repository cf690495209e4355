package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type SinkInput struct {
	ID      int
	Volume  int
	AppName string
}

// Mixer lists and adjusts playback streams.
type Mixer interface {
	SinkInputs(ctx context.Context) ([]SinkInput, error)
	SetVolume(ctx context.Context, id, percent int) error
}

// DuckOptions control how far other streams are lowered while the
// assistant talks.
type DuckOptions struct {
	SelfNames []string // application.name values never touched
	Factor    float64
	MinVolume int
	Fade      time.Duration
}

// Ducker lowers every other application's audio while speech feedback is
// playing and restores it afterwards.
type Ducker struct {
	mu       sync.Mutex
	mixer    Mixer
	opt      DuckOptions
	active   bool
	original map[int]int
}

func NewDucker(mixer Mixer, opt DuckOptions) *Ducker {
	if mixer == nil {
		mixer = Pactl{}
	}
	opt.MinVolume = clampVolume(opt.MinVolume)
	if opt.Factor <= 0 || opt.Factor > 1 {
		opt.Factor = 0.3
	}
	opt.SelfNames = append([]string(nil), opt.SelfNames...)

	return &Ducker{
		mixer:    mixer,
		opt:      opt,
		original: make(map[int]int),
	}
}

// Duck fades other streams to Factor of their volume, never below
// MinVolume and never above where they already are. Calling it while
// already ducked is a no-op.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := d.mixer.SinkInputs(ctx)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	d.original = make(map[int]int)
	var targets []fade
	for _, s := range streams {
		if d.isSelf(s) {
			continue
		}
		to := int(math.Round(float64(s.Volume) * d.opt.Factor))
		to = min(s.Volume, max(to, d.opt.MinVolume))
		d.original[s.ID] = s.Volume
		targets = append(targets, fade{id: s.ID, from: s.Volume, to: clampVolume(to)})
	}

	if err := d.fade(ctx, targets); err != nil {
		return err
	}
	d.active = true
	return nil
}

// Restore fades ducked streams back. Streams that appeared after Duck are
// left alone.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := d.mixer.SinkInputs(ctx)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	var targets []fade
	for _, s := range streams {
		orig, ok := d.original[s.ID]
		if !ok || d.isSelf(s) {
			continue
		}
		targets = append(targets, fade{id: s.ID, from: s.Volume, to: orig})
	}

	if err := d.fade(ctx, targets); err != nil {
		return err
	}
	d.original = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isSelf(s SinkInput) bool {
	for _, name := range d.opt.SelfNames {
		if s.AppName == name {
			return true
		}
	}
	return false
}

type fade struct {
	id, from, to int
}

func (d *Ducker) fade(ctx context.Context, targets []fade) error {
	if len(targets) == 0 {
		return nil
	}

	const minStep = 10 * time.Millisecond

	steps := int(d.opt.Fade / minStep)
	if steps < 1 {
		steps = 1
	}
	stepDur := d.opt.Fade / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frac := float64(i) / float64(steps)
		for _, t := range targets {
			v := int(math.Round(float64(t.from) + float64(t.to-t.from)*frac))
			if err := d.mixer.SetVolume(ctx, t.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}

		if i < steps && stepDur > 0 {
			time.Sleep(stepDur)
		}
	}
	return nil
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxVolume {
		return maxVolume
	}
	return v
}

// Pactl drives PulseAudio/PipeWire through the pactl binary.
type Pactl struct{}

func (Pactl) SinkInputs(ctx context.Context) ([]SinkInput, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

func (Pactl) SetVolume(ctx context.Context, id, percent int) error {
	arg := fmt.Sprintf("%d%%", clampVolume(percent))
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg).Run()
}

func parseSinkInputs(text string) []SinkInput {
	blocks := strings.Split(text, "Sink Input #")
	var res []SinkInput

	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		s := SinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					s.Volume, _ = strconv.Atoi(m[1])
				}
			}

			// application.name = "Firefox"
			if strings.HasPrefix(line, "application.name =") && s.AppName == "" {
				if v, err := strconv.Unquote(strings.TrimSpace(strings.TrimPrefix(line, "application.name ="))); err == nil {
					s.AppName = v
				}
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}

	return res
}
