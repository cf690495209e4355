// Package audioconv decodes audio files into the 16 kHz mono float32 PCM
// the transcriber expects.
package audioconv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const TargetRate = 16000

type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatOgg     Format = "ogg"
)

type Options struct {
	MaxSamples int
}

var ErrUnsupported = errors.New("unsupported audio format")

// DecodeFile picks a decoder from the extension, falling back to sniffing
// the first bytes.
func DecodeFile(_ context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format := formatFromExt(filepath.Ext(path))
	if format == FormatUnknown {
		magic, _ := bufio.NewReader(f).Peek(4)
		format = sniff(magic)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	pcm, err := Decode(f, format, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pcm, nil
}

func Decode(r io.ReadSeeker, format Format, opt Options) ([]float32, error) {
	var (
		pcm []float32
		sr  int
		err error
	)

	switch format {
	case FormatWAV:
		pcm, sr, err = decodeWAV(r)
	case FormatMP3:
		pcm, sr, err = decodeMP3(r)
	case FormatOgg:
		// Ogg carries either Vorbis or Opus.
		pcm, sr, err = decodeVorbis(r)
		if err != nil {
			if _, serr := r.Seek(0, io.SeekStart); serr != nil {
				return nil, serr
			}
			var oerr error
			if pcm, sr, oerr = decodeOpus(r); oerr != nil {
				return nil, fmt.Errorf("ogg: vorbis: %v, opus: %w", err, oerr)
			}
			err = nil
		}
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}

	pcm = resampleLinear(pcm, sr, TargetRate)
	if opt.MaxSamples > 0 && len(pcm) > opt.MaxSamples {
		pcm = pcm[:opt.MaxSamples]
	}
	return pcm, nil
}

func formatFromExt(ext string) Format {
	switch strings.ToLower(ext) {
	case ".wav":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	case ".ogg", ".oga", ".opus":
		return FormatOgg
	default:
		return FormatUnknown
	}
}

func sniff(magic []byte) Format {
	switch {
	case bytes.HasPrefix(magic, []byte("RIFF")):
		return FormatWAV
	case bytes.HasPrefix(magic, []byte("OggS")):
		return FormatOgg
	case bytes.HasPrefix(magic, []byte("ID3")), len(magic) >= 2 && magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// Each decoder returns mono samples and their sample rate.

func decodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if pb == nil || len(pb.Data) == 0 {
		return nil, 0, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	ch, sr := 1, 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			ch = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			sr = pb.Format.SampleRate
		}
	}

	return downmix(intsToFloat(pb.Data, depth), ch), sr, nil
}

func decodeMP3(r io.Reader) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, err
	}

	samples := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(samples)*2]), binary.LittleEndian, samples); err != nil {
		return nil, 0, err
	}

	sr := dec.SampleRate()
	if sr <= 0 {
		sr = 44100
	}
	// go-mp3 always produces interleaved stereo
	return downmix(int16sToFloat(samples), 2), sr, nil
}

func decodeVorbis(r io.Reader) ([]float32, int, error) {
	pcm, f, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	if f == nil || f.Channels <= 0 || f.SampleRate <= 0 {
		return nil, 0, errors.New("invalid ogg/vorbis stream")
	}
	return downmix(pcm, f.Channels), f.SampleRate, nil
}

func decodeOpus(r io.ReadSeeker) ([]float32, int, error) {
	const opusRate = 48000

	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	var (
		pcm []float32
		buf = make([]int16, opusRate*ch/2)
	)
	for {
		n, err := dec.Read(buf) // n is samples per channel
		if n > 0 {
			pcm = append(pcm, int16sToFloat(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}

	return downmix(pcm, ch), opusRate, nil
}

func intsToFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*scale, -1, 1))
	}
	return out
}

func int16sToFloat(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}

func downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	n := len(in) / channels
	out := make([]float32, n)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

func resampleLinear(in []float32, inSR, outSR int) []float32 {
	if inSR == outSR || inSR <= 0 || len(in) == 0 {
		return in
	}
	ratio := float64(outSR) / float64(inSR)
	out := make([]float32, int(math.Ceil(float64(len(in))*ratio)))
	last := len(in) - 1
	for i := range out {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= last {
			out[i] = in[last]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i0+1]*a
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
