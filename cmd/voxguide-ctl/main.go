package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"voxguide/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	raw := cli.BoolP("json", "j", false, "Print the raw JSON reply")
	timeout := cli.DurationP("timeout", "t", 5*time.Second, "Request timeout")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: voxguide-ctl [flags] toggle|state|commands|speak <text>\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	req, err := request(cli.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		cli.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := ipc.Send(ctx, *socket, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, failure(err))
		os.Exit(1)
	}

	if err := render(os.Stdout, resp, *raw); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !resp.OK {
		os.Exit(1)
	}
}

func request(args []string) (ipc.Request, error) {
	if len(args) == 0 {
		return ipc.Request{Cmd: ipc.CmdToggle}, nil
	}

	switch args[0] {
	case ipc.CmdToggle, ipc.CmdState, ipc.CmdCommands:
		if len(args) > 1 {
			return ipc.Request{}, fmt.Errorf("%s takes no arguments", args[0])
		}
		return ipc.Request{Cmd: args[0]}, nil
	case ipc.CmdSpeak:
		text := strings.Join(args[1:], " ")
		if text == "" {
			return ipc.Request{}, errors.New("speak needs text")
		}
		return ipc.Request{Cmd: ipc.CmdSpeak, Text: text}, nil
	default:
		return ipc.Request{}, fmt.Errorf("unknown command %q", args[0])
	}
}

func failure(err error) string {
	if errors.Is(err, ipc.ErrUnreachable) {
		return fmt.Sprintf("voxguide-daemon not running: %v", err)
	}
	return fmt.Sprintf("request failed: %v", err)
}

func render(w io.Writer, resp ipc.Response, raw bool) error {
	if raw {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if !resp.OK {
		_, err := fmt.Fprintf(w, "error: %s\n", resp.Error)
		return err
	}

	if len(resp.Commands) > 0 {
		for _, c := range resp.Commands {
			if _, err := fmt.Fprintf(w, "%-12s %-40s %s\n", c.Group, strings.Join(c.Patterns, ", "), c.Description); err != nil {
				return err
			}
		}
		return nil
	}

	_, err := fmt.Fprintf(w, "phase: %s\n", resp.Phase)
	if err == nil && resp.Transcript != "" {
		_, err = fmt.Fprintf(w, "last:  %s\n", resp.Transcript)
	}
	return err
}
