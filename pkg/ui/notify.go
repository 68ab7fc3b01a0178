package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"followsync/pkg/syncer"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

type notifySend struct{}

func (notifySend) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

type osascript struct{}

func (osascript) Send(title, message string) error {
	script := fmt.Sprintf("display notification %q with title %q", message, title)
	return exec.Command("osascript", "-e", script).Run()
}

type powershell struct{}

func (powershell) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName("text")
		$text.Item(0).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("followsync").Show($toast)
	`, title, message)
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier sends a desktop notification when a run ends
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform. On unsupported
// platforms notifications are dropped.
func NewNotifier() *Notifier {
	switch runtime.GOOS {
	case "linux":
		return &Notifier{sender: notifySend{}}
	case "darwin":
		return &Notifier{sender: osascript{}}
	case "windows":
		return &Notifier{sender: powershell{}}
	default:
		return &Notifier{}
	}
}

// NewNotifierWithSender creates a notifier using sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// NotifySummary reports the outcome of a run
func (n *Notifier) NotifySummary(s syncer.Summary) error {
	if n.sender == nil {
		return nil
	}

	title := "followsync finished"
	switch {
	case s.Canceled:
		title = "followsync interrupted"
	case s.Failed > 0:
		title = "followsync finished with failures"
	}
	message := fmt.Sprintf("%d new followers across %d accounts (%d failed, %d skipped)",
		s.Added, s.Succeeded, s.Failed, s.Skipped)
	return n.sender.Send(title, message)
}
