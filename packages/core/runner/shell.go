package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rowspec/packages/core/config"
	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

// ShellOptions controls how command bodies are executed.
type ShellOptions struct {
	Shell string
	Dir   string
	Env   []string
	// AssumeExitCode is the exit status reported as an assumption failure.
	// Zero disables it.
	AssumeExitCode int
	// Output receives combined command output when set.
	Output io.Writer
}

var placeholderRe = regexp.MustCompile(`\{\{\s*(\d+)\s*\}\}`)

// Expand replaces {{i}} placeholders with the row values. An index outside
// the row is left untouched.
func Expand(template string, row params.Row) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		sub := placeholderRe.FindStringSubmatch(match)
		i, err := strconv.Atoi(sub[1])
		if err != nil || i >= len(row) {
			return match
		}
		if row[i] == nil {
			return ""
		}
		return fmt.Sprint(row[i])
	})
}

// Placeholders returns one past the highest {{i}} index in template, the
// arity a row needs to fill it.
func Placeholders(template string) int {
	n := 0
	for _, sub := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if i, err := strconv.Atoi(sub[1]); err == nil && i+1 > n {
			n = i + 1
		}
	}
	return n
}

// ShellBody runs template through `<shell> -c` once per row.
func ShellBody(template string, opts ShellOptions) Body {
	return func(ctx context.Context, row params.Row) error {
		_, err := runShell(ctx, Expand(template, row), opts)
		return err
	}
}

func runShell(ctx context.Context, command string, opts ShellOptions) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", nil
	}

	shell := opts.Shell
	if shell == "" {
		shell = config.DefaultShell
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)
	// children of the shell may hold the output pipe after it is killed
	cmd.WaitDelay = time.Second

	output, err := cmd.CombinedOutput()
	if opts.Output != nil && len(output) > 0 {
		opts.Output.Write(output)
	}
	if err == nil {
		return string(output), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && opts.AssumeExitCode != 0 && exitErr.ExitCode() == opts.AssumeExitCode {
		return string(output), &AssumptionError{
			Reason: fmt.Sprintf("%s: exit status %d", command, exitErr.ExitCode()),
		}
	}
	return string(output), fmt.Errorf("shell command failed: %s: %w\nOutput: %s", command, err, output)
}
