package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"example.com/drawguess/internal/drawing"
	"example.com/drawguess/internal/session"
)

type command struct {
	help string
	run  func(arg string) error
}

type commands map[string]command

func (c commands) with(more commands) commands {
	out := maps.Clone(c)
	for k, v := range more {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// runConsole reads commands and chat lines until /quit or ctx ends. At end
// of input it keeps waiting for ctx so a detached host stays up.
func runConsole(ctx context.Context, in io.Reader, t *terminal, cmds commands) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				<-ctx.Done()
				return nil
			}
			if quit := dispatch(line, t, cmds); quit {
				return nil
			}
		}
	}
}

func dispatch(line string, t *terminal, cmds commands) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		line = "/say " + line
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	switch name {
	case "quit", "exit":
		return true
	case "help":
		for _, k := range slices.Sorted(maps.Keys(cmds)) {
			t.printf("  /%-8s %s\n", k, cmds[k].help)
		}
		t.printf("  /%-8s %s\n", "quit", "leave")
		return false
	}
	c, ok := cmds[name]
	if !ok {
		t.printf("unknown command /%s, try /help\n", name)
		return false
	}
	if err := c.run(strings.TrimSpace(arg)); err != nil {
		t.printf("! %v\n", err)
	}
	return false
}

// participantCommands work the same for host and guest.
func participantCommands(g *session.Game, t *terminal) commands {
	pen := drawing.Black
	width := 4.0
	return commands{
		"say":  {"chat or guess (plain text works too)", g.Chat},
		"pick": {"choose word N while picking", func(arg string) error {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("want a number: %w", err)
			}
			return g.ChooseCandidate(n - 1)
		}},
		"color": {"set pen color, e.g. #ff0000", func(arg string) error {
			c, err := drawing.ParseColor(arg)
			if err != nil {
				return err
			}
			pen = c
			return nil
		}},
		"width": {"set pen width in pixels", func(arg string) error {
			w, err := strconv.ParseFloat(arg, 64)
			if err != nil || w <= 0 {
				return fmt.Errorf("bad width %q", arg)
			}
			width = w
			return nil
		}},
		"line": {"draw X1 Y1 X2 Y2 in canvas pixels", func(arg string) error {
			p, err := points(arg, 2)
			if err != nil {
				return err
			}
			if err := g.BeginStroke(p[0], pen, width); err != nil {
				return err
			}
			return g.ContinueStroke(p[0], p[1], pen, width)
		}},
		"fill": {"flood fill at X Y", func(arg string) error {
			p, err := points(arg, 1)
			if err != nil {
				return err
			}
			return g.Fill(p[0], pen)
		}},
		"clear": {"clear the canvas", func(string) error { return g.ClearCanvas() }},
		"undo":  {"undo the last stroke or fill", func(string) error { return g.Undo() }},
		"save":  {"write the canvas to a PNG file", func(arg string) error {
			if arg == "" {
				arg = "canvas.png"
			}
			b, err := g.Canvas().PNG()
			if err != nil {
				return err
			}
			if err := os.WriteFile(arg, b, 0o644); err != nil {
				return err
			}
			t.printf("saved %s\n", arg)
			return nil
		}},
		"players": {"list players", func(string) error {
			t.OnPlayerUpdate(g.Players())
			return nil
		}},
	}
}

func points(arg string, n int) ([]drawing.Point, error) {
	f := strings.Fields(arg)
	if len(f) != 2*n {
		return nil, fmt.Errorf("want %d coordinates, got %d", 2*n, len(f))
	}
	out := make([]drawing.Point, n)
	for i := range out {
		x, err := strconv.ParseFloat(f[2*i], 64)
		if err != nil {
			return nil, err
		}
		y, err := strconv.ParseFloat(f[2*i+1], 64)
		if err != nil {
			return nil, err
		}
		out[i] = drawing.Point{X: x, Y: y}
	}
	return out, nil
}
