// Package paramdeck provides a machine-side client that pairs a bank of
// physical faders with a software synthesis engine, mapping each fader's
// normalized position onto a named engine parameter's value range
package paramdeck

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/paramdeck/paramdeck/util"
)

const (

	// when this is set to anything, paramdeck won't use a tray icon
	envNoTray = "PARAMDECK_NO_TRAY_ICON"
)

// Deck is the main entity managing access to all sub-components
type Deck struct {
	logger   *zap.SugaredLogger
	notifier Notifier
	config   *CanonicalConfig
	serial   *SerialIO
	engine   *Engine
	faders   *faderBank
	params   *paramMap

	stopChannel chan bool
	version     string
	verbose     bool
}

// NewDeck creates a Deck instance
func NewDeck(logger *zap.SugaredLogger, verbose bool) (*Deck, error) {
	logger = logger.Named("deck")

	notifier, err := NewDesktopNotifier(logger)
	if err != nil {
		logger.Errorw("Failed to create DesktopNotifier", "error", err)
		return nil, fmt.Errorf("create new DesktopNotifier: %w", err)
	}

	config, err := NewConfig(logger, notifier)
	if err != nil {
		logger.Errorw("Failed to create Config", "error", err)
		return nil, fmt.Errorf("create new Config: %w", err)
	}

	d := &Deck{
		logger:      logger,
		notifier:    notifier,
		config:      config,
		stopChannel: make(chan bool),
		verbose:     verbose,
	}

	serial, err := NewSerialIO(d, logger)
	if err != nil {
		logger.Errorw("Failed to create SerialIO", "error", err)
		return nil, fmt.Errorf("create new SerialIO: %w", err)
	}

	d.serial = serial

	// the serial connection doubles as the write-back path for motorized faders
	d.faders = newFaderBank(serial)

	engine, err := NewEngine(d, logger)
	if err != nil {
		logger.Errorw("Failed to create Engine", "error", err)
		return nil, fmt.Errorf("create new Engine: %w", err)
	}

	d.engine = engine

	params, err := newParamMap(d, logger, engine)
	if err != nil {
		logger.Errorw("Failed to create paramMap", "error", err)
		return nil, fmt.Errorf("create new paramMap: %w", err)
	}

	d.params = params

	logger.Debug("Created deck instance")

	return d, nil
}

// Initialize sets up components and starts to run in the background
func (d *Deck) Initialize() error {
	d.logger.Debug("Initializing")

	// load the config for the first time
	if err := d.config.Load(); err != nil {
		d.logger.Errorw("Failed to load config during initialization", "error", err)
		return fmt.Errorf("load config during init: %w", err)
	}

	// initialize the param map
	if err := d.params.initialize(); err != nil {
		d.logger.Errorw("Failed to initialize param map", "error", err)
		return fmt.Errorf("init param map: %w", err)
	}

	// decide whether to run with/without tray
	if _, noTraySet := os.LookupEnv(envNoTray); noTraySet {

		d.logger.Debugw("Running without tray icon", "reason", "envvar set")

		// run in main thread while waiting on ctrl+C
		d.setupInterruptHandler()
		d.run()

	} else {
		d.setupInterruptHandler()
		d.initializeTray(d.run)
	}

	return nil
}

// SetVersion causes paramdeck to add a version string to its tray menu if called before Initialize
func (d *Deck) SetVersion(version string) {
	d.version = version
}

// Verbose returns a boolean indicating whether paramdeck is running in verbose mode
func (d *Deck) Verbose() bool {
	return d.verbose
}

func (d *Deck) setupInterruptHandler() {
	interruptChannel := util.SetupCloseHandler()

	go func() {
		signal := <-interruptChannel
		d.logger.Debugw("Interrupted", "signal", signal)
		d.signalStop()
	}()
}

func (d *Deck) run() {
	defer d.recoverFromPanic()

	d.logger.Info("Run loop starting")

	// watch the config file for changes
	go d.config.WatchConfigFileChanges()

	// dial the synthesis engine - UDP, so this only fails on bad addresses
	if err := d.engine.Start(); err != nil {
		d.logger.Warnw("Failed to dial synthesis engine", "error", err)

		d.notifier.Notify("Can't reach the synthesis engine!",
			"Check the engine address in your configuration and make sure the engine is running.")
	}

	// connect to the fader controller for the first time
	go func() {
		if err := d.serial.Start(); err != nil {
			d.logger.Warnw("Failed to start first-time serial connection", "error", err)

			// If the port is busy, that's because something else is connected - notify and quit
			if errors.Is(err, os.ErrPermission) {
				d.logger.Warnw("Serial port seems busy, notifying user and closing",
					"comPort", d.config.ConnectionInfo.COMPort)

				d.notifier.Notify(fmt.Sprintf("Can't connect to %s!", d.config.ConnectionInfo.COMPort),
					"This serial port is busy, make sure to close any serial monitor or other paramdeck instance.")

				d.signalStop()

				// also notify if the COM port they gave isn't found, maybe their config is wrong
			} else if errors.Is(err, os.ErrNotExist) {
				d.logger.Warnw("Provided COM port seems wrong, notifying user and closing",
					"comPort", d.config.ConnectionInfo.COMPort)

				d.notifier.Notify(fmt.Sprintf("Can't connect to %s!", d.config.ConnectionInfo.COMPort),
					"This serial port doesn't exist, check your configuration and make sure it's set correctly.")

				d.signalStop()
			}
		}
	}()

	// wait until stopped (gracefully)
	<-d.stopChannel
	d.logger.Debug("Stop channel signaled, terminating")

	if err := d.stop(); err != nil {
		d.logger.Warnw("Failed to stop deck", "error", err)
		os.Exit(1)
	} else {
		// exit with 0
		os.Exit(0)
	}
}

func (d *Deck) signalStop() {
	d.logger.Debug("Signalling stop channel")
	d.stopChannel <- true
}

func (d *Deck) stop() error {
	d.logger.Info("Stopping")

	d.config.StopWatchingConfigFile()
	d.serial.Stop()
	d.engine.Stop()

	d.stopTray()

	// attempt to sync on exit - this won't necessarily work but can't harm
	d.logger.Sync()

	return nil
}
