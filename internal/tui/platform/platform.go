package platform

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/glabrego/soupdeck/internal/weburl"
)

var (
	writeClipboard = clipboard.WriteAll
	runCommand     = func(name string, args ...string) error { return exec.Command(name, args...).Run() }
)

// ValidateURL trims raw and checks it with the same rule panels use before
// fetching.
func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("panel has no URL")
	}
	if err := weburl.Validate(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

func OpenURLInBrowser(raw string) error {
	url, err := ValidateURL(raw)
	if err != nil {
		return err
	}
	name, args := browserCommand(runtime.GOOS, url)
	return runCommand(name, args...)
}

func CopyToClipboard(text string) error {
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard command available")
	}
	return writeClipboard(text)
}
