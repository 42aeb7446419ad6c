package utils

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/krrrr38/gl2gh/pkg/logger"
)

// Command is an external program invocation. Arguments are passed directly to the program,
// never through a shell.
type Command struct {
	Dir  string
	Name string
	Args []string
	// Redact is removed from logged arguments and error output.
	Redact string
}

func (c Command) String() string {
	s := strings.Join(append([]string{c.Name}, c.Args...), " ")
	if c.Redact != "" {
		s = strings.ReplaceAll(s, c.Redact, "***")
	}
	return s
}

// ExecuteCommand runs the command and returns its combined output.
func ExecuteCommand(ctx context.Context, c Command) (string, error) {
	logger.Debug("Executing command", "cmd", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		out := string(output)
		if c.Redact != "" {
			out = strings.ReplaceAll(out, c.Redact, "***")
		}
		return "", fmt.Errorf("command %q failed: %w\nOutput: %s", c.String(), err, out)
	}
	return string(output), nil
}

// CleanupDirectory removes and recreates a directory
func CleanupDirectory(dir string) error {
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clean up directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}
