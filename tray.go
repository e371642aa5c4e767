package paramdeck

import (
	"github.com/getlantern/systray"

	"github.com/paramdeck/paramdeck/icon"
)

func (d *Deck) initializeTray(onDone func()) {
	logger := d.logger.Named("tray")

	onReady := func() {
		logger.Debug("Tray instance ready")

		systray.SetTemplateIcon(icon.Data, icon.Data)
		systray.SetTitle("paramdeck")
		systray.SetTooltip("paramdeck")

		// if we have a version, add it as a disabled menu item at the top
		if d.version != "" {
			versionInfo := systray.AddMenuItem(d.version, "")
			versionInfo.Disable()
			systray.AddSeparator()
		}

		randomize := systray.AddMenuItem("Randomize parameters", "Draw a random value for every parameter")
		quit := systray.AddMenuItem("Quit", "Stop paramdeck and quit")

		// wait on menu events
		go func() {
			for {
				select {
				case <-randomize.ClickedCh:
					logger.Info("Randomize menu item clicked")
					d.params.randomizeAll()
				case <-quit.ClickedCh:
					logger.Info("Quit menu item clicked, stopping")
					d.signalStop()
				}
			}
		}()

		// actually start the main runtime
		onDone()
	}

	onExit := func() {
		logger.Debug("Tray exited")
	}

	// start the tray icon
	logger.Debug("Running in tray")
	systray.Run(onReady, onExit)
}

func (d *Deck) stopTray() {
	d.logger.Debug("Quitting tray")
	systray.Quit()
}
