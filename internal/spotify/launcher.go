package spotify

import (
	"log"
	"os/exec"
	"runtime"
)

// LaunchDesktopApp starts the local Spotify desktop application so it
// registers as a playback device. Best effort: failures are logged and
// ignored, since the device may appear through another client anyway.
func LaunchDesktopApp(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", "spotify:")
	case "darwin":
		cmd = exec.Command("open", "-g", "-a", "Spotify")
	default:
		if _, err := exec.LookPath("spotify"); err == nil {
			cmd = exec.Command("spotify")
		} else {
			cmd = exec.Command("xdg-open", "spotify:")
		}
	}

	if err := cmd.Start(); err != nil {
		logger.Printf("Warning: could not launch Spotify desktop app: %v", err)
		return
	}
	// Detach; the app outlives us and we never wait on it.
	go func() { _ = cmd.Wait() }()
}
