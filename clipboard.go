package imageview

import (
	"os/exec"
	"runtime"
)

// CopyOriginalToClipboard copies the loaded image's raw PNG bytes to the
// host OS clipboard, the one external side effect named in the external-
// interfaces contract. No clipboard library appears anywhere in the example
// corpus, so this shells out to the platform clipboard utility directly
// (os/exec), the same external-process-call shape the corpus reaches for
// elsewhere when no library fits. Unavailability is not an error: it
// returns quietly with a log line, per the error-handling table.
func (e *Engine) CopyOriginalToClipboard() {
	if e.image == nil {
		return
	}
	data, err := encodePNG(e.image)
	if err != nil {
		e.logWarn("clipboard: encode image failed", "error", err)
		return
	}
	cmd := clipboardCommand()
	if cmd == nil {
		e.logWarn("clipboard: not supported on this platform")
		return
	}
	cmd.Stdin = newByteReader(data)
	if err := cmd.Run(); err != nil {
		e.logWarn("clipboard: copy failed", "error", err)
		return
	}
	e.observers.imageCopied()
}

// clipboardCommand returns the platform clipboard command, or nil when the
// platform has no known clipboard utility.
func clipboardCommand() *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("pbcopy")
	case "linux":
		if _, err := exec.LookPath("xclip"); err == nil {
			return exec.Command("xclip", "-selection", "clipboard", "-t", "image/png")
		}
		return nil
	case "windows":
		return exec.Command("clip")
	default:
		return nil
	}
}
