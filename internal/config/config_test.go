package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	cli "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("voxguide", []string{"-e", noEnvFile(t)}, nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/tmp/voxguide.sock", cfg.Socket)
	assert.Equal(t, "VOX", cfg.Hub.Shard)
	assert.Equal(t, "UI", cfg.Hub.UIShard)
	assert.Equal(t, 2*time.Second, cfg.Hub.Reconnect)
	assert.Equal(t, 0.9, cfg.Speech.Rate)
	assert.Equal(t, 0.8, cfg.Speech.Volume)
	assert.True(t, cfg.Speech.Duck)
	assert.Equal(t, 15*time.Second, cfg.Audio.MaxTurn)
	assert.False(t, cfg.Fallback.Enabled())
}

func TestLoad_Precedence(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "vox.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"VOXGUIDE_LOG=debug\n"+
			"VOXGUIDE_SHARD=FILE\n"+
			"VOXGUIDE_UI_SHARD=FILEUI\n"+
			"OPENAI_API_KEY=sk-file\n"), 0o644))

	cfg, err := Load("voxguide",
		[]string{"--env", envFile, "--shard", "FLAG", "-i", "a.wav,b.ogg"},
		[]string{"VOXGUIDE_SHARD=PROC", "VOXGUIDE_UI_SHARD=PROCUI", "VOXGUIDE_INPUT_FILES=x.wav"},
	)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel, "env file")
	assert.Equal(t, "PROCUI", cfg.Hub.UIShard, "process env beats env file")
	assert.Equal(t, "FLAG", cfg.Hub.Shard, "flag beats env")
	assert.Equal(t, []string{"a.wav", "b.ogg"}, cfg.Audio.Files)
	assert.True(t, cfg.Fallback.Enabled())
}

func TestLoad_EnvSlice(t *testing.T) {
	cfg, err := Load("voxguide", []string{"-e", noEnvFile(t)},
		[]string{"VOXGUIDE_INPUT_FILES=one.wav,two.mp3", "VOXGUIDE_INPUT_LOOP=true"})
	require.NoError(t, err)
	assert.Equal(t, []string{"one.wav", "two.mp3"}, cfg.Audio.Files)
	assert.True(t, cfg.Audio.Loop)
}

func TestLoad_Whisper(t *testing.T) {
	cfg, err := Load("voxguide", []string{"-e", noEnvFile(t), "--beam", "5", "--translate"},
		[]string{"VOXGUIDE_WHISPER_TEMPERATURE=0.2", "VOXGUIDE_WHISPER_BEAM=2"})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Audio.BeamSize)
	assert.True(t, cfg.Audio.Translate)
	assert.InDelta(t, 0.2, cfg.Audio.Temperature, 1e-6)

	_, err = Load("voxguide", []string{"-e", noEnvFile(t), "--beam", "-1"}, nil)
	assert.ErrorContains(t, err, "beam size")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("voxguide", []string{"--no-such-flag"}, nil)
	assert.Error(t, err)

	_, err = Load("voxguide", []string{"-h"}, nil)
	assert.ErrorIs(t, err, cli.ErrHelp)

	_, err = Load("voxguide", []string{"-e", noEnvFile(t)}, []string{"VOXGUIDE_MAX_TURN=soon"})
	assert.ErrorContains(t, err, "parse env")

	_, err = Load("voxguide", []string{"-e", noEnvFile(t), "--voice-gender", "robot"}, nil)
	assert.ErrorContains(t, err, "voice gender")
}

func TestValidate(t *testing.T) {
	c := Config{
		Speech:   Speech{Rate: 3, Pitch: 1, Volume: -1},
		Hub:      Hub{URL: "ws://hub"},
		Fallback: Fallback{Timeout: time.Second},
	}
	err := c.Validate()
	assert.ErrorContains(t, err, "voice rate")
	assert.ErrorContains(t, err, "voice volume")
	assert.ErrorContains(t, err, "reconnect delay")
	assert.NotContains(t, err.Error(), "pitch")
}
