package imageview

import (
	"runtime"
	"testing"
)

func TestClipboardCommandMatchesPlatform(t *testing.T) {
	cmd := clipboardCommand()
	switch runtime.GOOS {
	case "darwin", "windows":
		if cmd == nil {
			t.Fatalf("expected a clipboard command on %s", runtime.GOOS)
		}
	case "linux":
		// Depends on whether xclip is installed on the host running the
		// test; both outcomes are valid, so just confirm it doesn't panic.
	default:
		if cmd != nil {
			t.Fatalf("expected nil clipboard command on unsupported OS %s", runtime.GOOS)
		}
	}
}
