// Package shell installs the fixexif completion script for the user's shell.
package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Supported lists the shells a completion script can be installed for.
var Supported = []string{"bash", "zsh", "fish"}

// ScriptPath returns where the completion script for shell is written.
func ScriptPath(shell string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fixexif", "fixexif.completion."+shell), nil
}

// Install writes script as the completion script for shell and prints the
// line the user needs to add to their rc file.
func Install(shell string, script []byte, out io.Writer) error {
	if !supported(shell) {
		return fmt.Errorf("unsupported shell for completion: %s (supported: bash, zsh, fish)", shell)
	}
	path, err := ScriptPath(shell)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, script, 0o644); err != nil {
		return fmt.Errorf("writing completion script: %w", err)
	}

	rcFile := rcFileName(shell)
	fmt.Fprintf(out, "\n  ✓ Completion written to %s\n", path)
	fmt.Fprintf(out, "\n  Add this line to your %s:\n", rcFile)
	fmt.Fprintf(out, "    source %s\n", path)
	fmt.Fprintf(out, "\n  Then reload: source %s\n\n", rcFile)
	return nil
}

// IsInstalled reports whether the completion script exists on disk.
func IsInstalled(shell string) bool {
	path, err := ScriptPath(shell)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func supported(shell string) bool {
	for _, s := range Supported {
		if s == shell {
			return true
		}
	}
	return false
}

func rcFileName(shell string) string {
	switch shell {
	case "zsh":
		return "~/.zshrc"
	case "bash":
		return "~/.bashrc"
	case "fish":
		return "~/.config/fish/config.fish"
	default:
		return "~/." + shell + "rc"
	}
}
