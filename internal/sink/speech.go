package sink

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultSpeechCommand is the text-to-speech program used for announcements.
const DefaultSpeechCommand = "espeak"

// SpeechAnnouncer speaks messages by running a text-to-speech command with
// the message as its final argument.
type SpeechAnnouncer struct {
	command string
	args    []string
}

// NewSpeechAnnouncer creates a SpeechAnnouncer running command with the given
// leading arguments.
func NewSpeechAnnouncer(command string, args ...string) *SpeechAnnouncer {
	if command == "" {
		command = DefaultSpeechCommand
	}
	return &SpeechAnnouncer{
		command: command,
		args:    args,
	}
}

// Announce runs the speech command and waits for it to finish or for ctx to
// expire.
func (a *SpeechAnnouncer) Announce(ctx context.Context, message string) error {
	args := append(append([]string{}, a.args...), message)
	cmd := exec.CommandContext(ctx, a.command, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrapf(ctx.Err(), "announce timeout running %s", a.command)
	}

	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.Wrapf(err, "announce with %s failed, stderr: %s", a.command, msg)
		}
		return errors.Wrapf(err, "announce with %s failed", a.command)
	}

	return nil
}
