// Package consumer starts the external programs that read a capture while it
// is being written, such as a player for the multicast stream or a
// demodulator tailing the output file. The capture loop does not coordinate
// with them.
package consumer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"text/template"

	"github.com/rs/zerolog"
)

// Descriptor names a program and its arguments, already expanded.
type Descriptor struct {
	Name    string
	Command string
	Args    []string
}

type Handle interface {
	Name() string
	// Stop terminates the program if it is still running.
	Stop() error
}

type Launcher interface {
	Launch(d Descriptor) (Handle, error)
}

// Expand renders command and args as templates over data.
func Expand(name, command string, args []string, data interface{}) (Descriptor, error) {
	d := Descriptor{Name: name}

	var err error
	if d.Command, err = render(command, data); err != nil {
		return d, fmt.Errorf("consumer %s: %w", name, err)
	}
	if d.Command == "" {
		return d, fmt.Errorf("consumer %s: empty command", name)
	}
	for _, arg := range args {
		expanded, err := render(arg, data)
		if err != nil {
			return d, fmt.Errorf("consumer %s: %w", name, err)
		}
		d.Args = append(d.Args, expanded)
	}
	return d, nil
}

func render(text string, data interface{}) (string, error) {
	tmpl, err := template.New("arg").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ExecLauncher runs consumers as detached child processes.
type ExecLauncher struct {
	Logger zerolog.Logger
}

func (l *ExecLauncher) Launch(d Descriptor) (Handle, error) {
	cmd := exec.Command(d.Command, d.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting %s: %w", d.Name, err)
	}

	h := &processHandle{name: d.Name, cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		close(h.done)
		l.Logger.Debug().Str("consumer", d.Name).Err(err).Msg("consumer exited")
	}()

	l.Logger.Info().Str("consumer", d.Name).Int("pid", cmd.Process.Pid).Msg("consumer started")
	return h, nil
}

type processHandle struct {
	name string
	cmd  *exec.Cmd
	done chan struct{}
}

func (h *processHandle) Name() string {
	return h.name
}

func (h *processHandle) Stop() error {
	select {
	case <-h.done:
		return nil
	default:
	}
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-h.done
	return nil
}

// LaunchAll starts every descriptor. Failures are logged and skipped; the
// capture runs without the consumers that could not be started.
func LaunchAll(l Launcher, descriptors []Descriptor, logger zerolog.Logger) []Handle {
	handles := make([]Handle, 0, len(descriptors))
	for _, d := range descriptors {
		h, err := l.Launch(d)
		if err != nil {
			logger.Error().Str("consumer", d.Name).Err(err).Msg("could not start consumer")
			continue
		}
		handles = append(handles, h)
	}
	return handles
}
