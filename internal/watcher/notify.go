package watcher

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Notify raises a desktop notification for the alert, mapping the alert
// level onto the platform's urgency support. macOS uses osascript, Linux
// notify-send; anything else (or a failed dispatch) lands on stderr.
func Notify(alert Alert) error {
	switch runtime.GOOS {
	case "darwin":
		return notifyMacOS(alert)
	case "linux":
		return notifyLinux(alert)
	default:
		return notifyFallback(alert)
	}
}

func notifyMacOS(alert Alert) error {
	script := fmt.Sprintf(
		`display notification %q with title "cclens" subtitle %q`,
		alert.Message, alert.Title,
	)
	if alert.Level == "critical" {
		// Budget overruns should be audible, not just visible.
		script += ` sound name "Basso"`
	}
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return notifyFallback(alert)
	}
	return nil
}

func notifyLinux(alert Alert) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return notifyFallback(alert)
	}
	cmd := exec.Command("notify-send",
		"-a", "cclens",
		"-u", urgency(alert.Level),
		"cclens: "+alert.Title, alert.Message,
	)
	if err := cmd.Run(); err != nil {
		return notifyFallback(alert)
	}
	return nil
}

// urgency maps cclens alert levels onto notify-send's urgency scale.
func urgency(level string) string {
	switch level {
	case "critical":
		return "critical"
	case "warning":
		return "normal"
	default:
		return "low"
	}
}

// notifyFallback prints the alert to stderr when no desktop notification
// system is available.
func notifyFallback(alert Alert) error {
	_, err := fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}
