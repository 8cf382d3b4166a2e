package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeQuotes(message), escapeQuotes(title))
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName("text")
		$text.Item(0).AppendChild($template.CreateTextNode("%s")) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode("%s")) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("galleryscraper").Show($toast)
	`, escapeQuotes(title), escapeQuotes(message))

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}

// Notifier sends a desktop notification when a run finishes
type Notifier struct {
	sender NotificationSender
}

// NewNotifier creates a new Notifier based on the current platform
func NewNotifier() *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return &Notifier{sender: sender}
}

// NewNotifierWithSender creates a Notifier that sends through sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// NotifyFinished reports the outcome of a run. Platforms without a
// notification mechanism are a no-op.
func (n *Notifier) NotifyFinished(s Stats) error {
	if n.sender == nil {
		return nil
	}
	title, message := finishedMessage(s)
	return n.sender.Send(title, message)
}

func finishedMessage(s Stats) (string, string) {
	name := s.Title
	if name == "" {
		name = s.PageURL
	}

	switch {
	case s.Candidates == 0:
		return "galleryscraper", fmt.Sprintf("No gallery found on %s", name)
	case s.Failed > 0:
		return "galleryscraper", fmt.Sprintf("Saved %d of %d images from %s (%d failed)",
			s.Downloaded, s.Candidates, name, s.Failed)
	default:
		return "galleryscraper", fmt.Sprintf("Saved %d images from %s", s.Downloaded, name)
	}
}
