package ipc

import (
	"context"
	"fmt"

	"voxguide/internal/catalog"
	"voxguide/internal/engine"
)

// Controller is the engine surface exposed on the control socket.
type Controller interface {
	Toggle(ctx context.Context) error
	Speak(text string) error
	Phase() engine.Phase
	LastTranscript() string
	Commands() []catalog.Definition
}

func EngineHandler(c Controller) Handler {
	return func(ctx context.Context, req Request) Response {
		var err error

		switch req.Cmd {
		case CmdToggle:
			err = c.Toggle(ctx)
		case CmdSpeak:
			if req.Text == "" {
				err = fmt.Errorf("speak: empty text")
			} else {
				err = c.Speak(req.Text)
			}
		case CmdState:
		case CmdCommands:
			return Response{OK: true, Phase: c.Phase().String(), Commands: commands(c.Commands())}
		default:
			err = fmt.Errorf("unknown command %q", req.Cmd)
		}

		resp := Response{
			OK:         err == nil,
			Phase:      c.Phase().String(),
			Transcript: c.LastTranscript(),
		}
		if err != nil {
			resp.Error = err.Error()
		}
		return resp
	}
}

func commands(defs []catalog.Definition) []Command {
	out := make([]Command, 0, len(defs))
	for _, d := range defs {
		out = append(out, Command{Patterns: d.Patterns, Description: d.Description, Group: d.Group})
	}
	return out
}
