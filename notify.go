package paramdeck

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/paramdeck/paramdeck/icon"
	"github.com/paramdeck/paramdeck/util"
)

// Notifier provides generic notification sending
type Notifier interface {
	Notify(title string, message string)
}

// DesktopNotifier sends desktop notifications on all supported platforms
type DesktopNotifier struct {
	logger *zap.SugaredLogger
}

// NewDesktopNotifier creates a new DesktopNotifier
func NewDesktopNotifier(logger *zap.SugaredLogger) (*DesktopNotifier, error) {
	notifier := &DesktopNotifier{logger: logger.Named("notifier")}
	notifier.logger.Debug("Created notifier instance")

	return notifier, nil
}

// Notify sends a desktop notification
func (dn *DesktopNotifier) Notify(title string, message string) {

	// we need to unpack the icon somewhere to remain portable. we already have it as bytes so it should be fine
	appIconPath := filepath.Join(os.TempDir(), "paramdeck.ico")

	if !util.FileExists(appIconPath) {
		f, err := os.Create(appIconPath)
		if err != nil {
			dn.logger.Warnw("Failed to create notification icon", "error", err)
			return
		}

		if _, err = f.Write(icon.Data); err != nil {
			dn.logger.Warnw("Failed to write notification icon", "error", err)
			return
		}

		if err = f.Close(); err != nil {
			dn.logger.Warnw("Failed to close notification icon", "error", err)
			return
		}
	}

	// send the actual notification
	if err := beeep.Notify(title, message, appIconPath); err != nil {
		dn.logger.Warnw("Failed to send desktop notification",
			"error", fmt.Errorf("send desktop notification: %w", err))
	}
}
