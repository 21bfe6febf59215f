package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// CommandPlayer plays encoded audio by staging it in a temporary file and
// running an external player on it, ffplay by default.
type CommandPlayer struct {
	command string
	args    []string
	tempDir string
}

func NewCommandPlayer(command string, args []string, tempDir string) *CommandPlayer {
	if command == "" {
		command = "ffplay"
		if len(args) == 0 {
			args = []string{"-nodisp", "-autoexit", "-loglevel", "error"}
		}
	}
	return &CommandPlayer{command: command, args: args, tempDir: tempDir}
}

// Play blocks until the player exits. The staged file is removed on every path.
func (p *CommandPlayer) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return errors.New("no audio to play")
	}

	file, err := os.CreateTemp(p.tempDir, "parley-speech-*.mp3")
	if err != nil {
		return fmt.Errorf("stage audio: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)

	if _, err := file.Write(audio); err != nil {
		_ = file.Close()
		return fmt.Errorf("stage audio: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("stage audio: %w", err)
	}

	args := append(append([]string(nil), p.args...), path)
	cmd := exec.CommandContext(ctx, p.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if detail := stringsTrimSpaceSafe(stderr.String()); detail != "" {
			return fmt.Errorf("%s: %w: %s", p.command, err, detail)
		}
		return fmt.Errorf("%s: %w", p.command, err)
	}
	return nil
}
