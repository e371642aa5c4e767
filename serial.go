package paramdeck

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/paramdeck/paramdeck/util"
)

// SerialIO provides a paramdeck-aware abstraction layer to managing serial I/O
type SerialIO struct {
	deck   *Deck
	logger *zap.SugaredLogger

	stopChannel chan bool
	connected   bool
	connOptions serial.OpenOptions
	conn        io.ReadWriteCloser

	lastKnownNumFaders    int
	currentFaderPositions []float32

	faderMoveConsumers []chan FaderMoveEvent
}

// FaderMoveEvent represents a single fader move captured by paramdeck
type FaderMoveEvent struct {
	FaderID  int
	Position float32
}

// raw fader values arrive as 10-bit integers
const maxRawFaderValue = 1023

var expectedLinePattern = regexp.MustCompile(`^\d{1,4}(\|\d{1,4})*\r\n$`)

// NewSerialIO creates a SerialIO instance that uses the provided deck
// instance's connection info to establish communications with the controller
func NewSerialIO(deck *Deck, logger *zap.SugaredLogger) (*SerialIO, error) {
	logger = logger.Named("serial")

	sio := &SerialIO{
		deck:               deck,
		logger:             logger,
		stopChannel:        make(chan bool),
		connected:          false,
		conn:               nil,
		faderMoveConsumers: []chan FaderMoveEvent{},
	}

	logger.Debug("Created serial i/o instance")

	// respond to config changes
	sio.setupOnConfigReload()

	return sio, nil
}

// Start attempts to connect to the fader controller
func (sio *SerialIO) Start() error {

	// don't allow multiple concurrent connections
	if sio.connected {
		sio.logger.Warn("Already connected, can't start another without closing first")
		return errors.New("serial: connection already active")
	}

	// set minimum read size according to platform (0 for windows, 1 for linux)
	// this prevents a rare bug on windows where serial reads get congested,
	// resulting in significant lag
	minimumReadSize := 0
	if util.Linux() {
		minimumReadSize = 1
	}

	sio.connOptions = serial.OpenOptions{
		PortName:        sio.deck.config.ConnectionInfo.COMPort,
		BaudRate:        uint(sio.deck.config.ConnectionInfo.BaudRate),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: uint(minimumReadSize),
	}

	sio.logger.Debugw("Attempting serial connection",
		"comPort", sio.connOptions.PortName,
		"baudRate", sio.connOptions.BaudRate,
		"minReadSize", minimumReadSize)

	var err error
	sio.conn, err = serial.Open(sio.connOptions)
	if err != nil {

		// might need a user notification here, TBD
		sio.logger.Warnw("Failed to open serial connection", "error", err)
		return fmt.Errorf("open serial connection: %w", err)
	}

	namedLogger := sio.logger.Named(strings.ToLower(sio.connOptions.PortName))

	namedLogger.Infow("Connected", "conn", sio.conn)
	sio.connected = true

	// read lines or await a stop
	go func() {
		connReader := bufio.NewReader(sio.conn)
		lineChannel := sio.readLine(namedLogger, connReader)

		for {
			select {
			case <-sio.stopChannel:
				sio.close(namedLogger)
				return
			case line := <-lineChannel:
				sio.handleLine(namedLogger, line)
			}
		}
	}()

	return nil
}

// Stop signals us to shut down our serial connection, if one is active
func (sio *SerialIO) Stop() {
	if sio.connected {
		sio.logger.Debug("Shutting down serial connection")
		sio.stopChannel <- true
	} else {
		sio.logger.Debug("Not currently connected, nothing to stop")
	}
}

// SubscribeToFaderMoveEvents returns an unbuffered channel that receives
// a FaderMoveEvent struct every time a fader moves
func (sio *SerialIO) SubscribeToFaderMoveEvents() chan FaderMoveEvent {
	ch := make(chan FaderMoveEvent)
	sio.faderMoveConsumers = append(sio.faderMoveConsumers, ch)

	return ch
}

// WritePosition pushes a normalized position out to a motorized fader on the
// controller. Positions outside [0,1] are clamped to the fader's travel
func (sio *SerialIO) WritePosition(faderIdx int, position float32) {
	raw := int(position*maxRawFaderValue + 0.5)

	if raw < 0 {
		raw = 0
	} else if raw > maxRawFaderValue {
		raw = maxRawFaderValue
	}

	sio.writeLine(sio.logger, fmt.Sprintf("set|%d|%d", faderIdx, raw))
}

// writeLine writes a single LF-terminated line to the serial port
func (sio *SerialIO) writeLine(logger *zap.SugaredLogger, line string) {
	if !sio.connected {
		return
	}

	if _, err := sio.conn.Write([]byte(line + "\n")); err != nil {

		// we probably don't need to log this, it'll happen once and the read loop will stop
		return
	}
}

func (sio *SerialIO) setupOnConfigReload() {
	configReloadedChannel := sio.deck.config.SubscribeToChanges()

	const stopDelay = 50 * time.Millisecond

	go func() {
		for range configReloadedChannel {

			// make any config reload unset our fader count to ensure parameters are being re-set
			// (the next read line will emit FaderMoveEvent instances for all faders)
			// this needs to happen after a small delay, because the param map will also rebuild
			// whenever the config file is reloaded, and we don't want it to receive these move
			// events while the map is still cleared. this is kind of ugly, but shouldn't cause any issues
			go func() {
				<-time.After(stopDelay)
				sio.lastKnownNumFaders = 0
			}()

			// if connection params have changed, attempt to stop and start the connection
			if sio.deck.config.ConnectionInfo.COMPort != sio.connOptions.PortName ||
				uint(sio.deck.config.ConnectionInfo.BaudRate) != sio.connOptions.BaudRate {

				sio.logger.Info("Detected change in connection parameters, attempting to renew connection")
				sio.Stop()

				// let the connection close
				<-time.After(stopDelay)

				if err := sio.Start(); err != nil {
					sio.logger.Warnw("Failed to renew connection after parameter change", "error", err)
				} else {
					sio.logger.Debug("Renewed connection successfully")
				}
			}
		}
	}()
}

func (sio *SerialIO) close(logger *zap.SugaredLogger) {
	if err := sio.conn.Close(); err != nil {
		logger.Warnw("Failed to close serial connection", "error", err)
	} else {
		logger.Debug("Serial connection closed")
	}

	sio.conn = nil
	sio.connected = false
}

func (sio *SerialIO) readLine(logger *zap.SugaredLogger, reader *bufio.Reader) chan string {
	ch := make(chan string)

	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {

				// we probably don't need to log this, it'll happen once and the read loop will stop
				return
			}

			if sio.deck.Verbose() {
				logger.Debugw("Read new line", "line", line)
			}

			// deliver the line to the channel
			ch <- line
		}
	}()

	return ch
}

func (sio *SerialIO) handleLine(logger *zap.SugaredLogger, line string) {

	// this function receives an unsanitized line which is guaranteed to end with LF,
	// but most lines will end with CRLF. it may also have garbage instead of
	// properly formatted values, so we must check for that! just ignore bad ones
	if !expectedLinePattern.MatchString(line) {
		return
	}

	// trim the suffix
	line = strings.TrimSuffix(line, "\r\n")

	// split on pipe (|), this gives a slice of numerical strings between "0" and "1023"
	splitLine := strings.Split(line, "|")
	numFaders := len(splitLine)

	// update our fader count, if needed - this will send fader move events for all
	if numFaders != sio.lastKnownNumFaders {
		logger.Infow("Detected faders", "amount", numFaders)
		sio.lastKnownNumFaders = numFaders
		sio.currentFaderPositions = make([]float32, numFaders)

		// reset everything to be an impossible value to force the fader move event later
		for idx := range sio.currentFaderPositions {
			sio.currentFaderPositions[idx] = -1.0
		}
	}

	// for each fader:
	moveEvents := []FaderMoveEvent{}
	for faderIdx, stringValue := range splitLine {

		// convert string values to integers ("1023" -> 1023)
		number, _ := strconv.Atoi(stringValue)

		// turns out the first line could come out dirty sometimes (i.e. "4558|925|41|643|220")
		// so let's check the first number for correctness just in case
		if faderIdx == 0 && number > maxRawFaderValue {
			sio.logger.Debugw("Got malformed line from serial, ignoring", "line", line)
			return
		}

		// map the value from raw to a "dirty" float between 0 and 1 (e.g. 0.15451...)
		dirtyFloat := float32(number) / maxRawFaderValue

		// normalize it to an actual position between 0.0 and 1.0 with 2 points of precision
		normalizedScalar := util.NormalizeScalar(dirtyFloat)

		// if faders are inverted, take the complement of 1.0
		if sio.deck.config.InvertFaders {
			normalizedScalar = 1 - normalizedScalar
		}

		// check if it changes the desired state (could just be a jumpy raw fader value)
		if util.SignificantlyDifferent(sio.currentFaderPositions[faderIdx], normalizedScalar, sio.deck.config.NoiseReductionLevel) {

			// if it does, update the saved value and create a move event
			sio.currentFaderPositions[faderIdx] = normalizedScalar

			moveEvents = append(moveEvents, FaderMoveEvent{
				FaderID:  faderIdx,
				Position: normalizedScalar,
			})

			if sio.deck.Verbose() {
				logger.Debugw("Fader moved", "event", moveEvents[len(moveEvents)-1])
			}
		}
	}

	// deliver move events if there are any, towards all potential consumers
	if len(moveEvents) > 0 {
		for _, consumer := range sio.faderMoveConsumers {
			for _, moveEvent := range moveEvents {
				consumer <- moveEvent
			}
		}
	}
}
