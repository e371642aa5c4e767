package paramdeck

import (
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// Engine provides a paramdeck-aware abstraction layer to managing the UDP
// link towards the synthesis engine
type Engine struct {
	deck   *Deck
	logger *zap.SugaredLogger

	address   string
	conn      net.Conn
	connected bool
}

// NewEngine creates an Engine instance that uses the provided deck
// instance's connection info to reach the synthesis engine
func NewEngine(deck *Deck, logger *zap.SugaredLogger) (*Engine, error) {
	logger = logger.Named("engine")

	e := &Engine{
		deck:   deck,
		logger: logger,
	}

	logger.Debug("Created engine instance")

	// respond to config changes
	e.setupOnConfigReload()

	return e, nil
}

// Start dials the engine's UDP listener
func (e *Engine) Start() error {

	// don't allow multiple concurrent connections
	if e.connected {
		e.logger.Warn("Already connected, can't start another without closing first")
		return errors.New("engine: connection already active")
	}

	address := fmt.Sprintf("%s:%d",
		e.deck.config.EngineInfo.Address,
		e.deck.config.EngineInfo.Port)

	e.logger.Debugw("Attempting engine connection", "address", address)

	conn, err := net.Dial("udp4", address)
	if err != nil {
		e.logger.Warnw("Failed to dial engine", "error", err)
		return fmt.Errorf("dial engine: %w", err)
	}

	e.conn = conn
	e.address = address
	e.connected = true

	e.logger.Named(address).Infow("Connected", "conn", conn)

	return nil
}

// Stop closes the engine connection, if one is active
func (e *Engine) Stop() {
	if !e.connected {
		e.logger.Debug("Not currently connected, nothing to stop")
		return
	}

	if err := e.conn.Close(); err != nil {
		e.logger.Warnw("Failed to close engine connection", "error", err)
	} else {
		e.logger.Debug("Engine connection closed")
	}

	e.conn = nil
	e.connected = false
}

// Send pushes a single parameter update to the engine. The engine's UDP
// listener evaluates each datagram as an orchestra statement
func (e *Engine) Send(name string, value float32) error {
	if !e.connected {
		return errors.New("engine: not connected")
	}

	statement := fmt.Sprintf("chnset %.6f, \"%s\"\n", value, name)

	if _, err := e.conn.Write([]byte(statement)); err != nil {
		e.logger.Warnw("Failed to send parameter update",
			"parameter", name,
			"error", err)

		return fmt.Errorf("send parameter update: %w", err)
	}

	return nil
}

func (e *Engine) setupOnConfigReload() {
	configReloadedChannel := e.deck.config.SubscribeToChanges()

	const stopDelay = 50 * time.Millisecond

	go func() {
		for range configReloadedChannel {

			// if connection params have changed, attempt to stop and start the connection
			newAddress := fmt.Sprintf("%s:%d",
				e.deck.config.EngineInfo.Address,
				e.deck.config.EngineInfo.Port)

			if newAddress != e.address {
				e.logger.Info("Detected change in engine address, attempting to renew connection")
				e.Stop()

				// let the connection close
				<-time.After(stopDelay)

				if err := e.Start(); err != nil {
					e.logger.Warnw("Failed to renew connection after address change", "error", err)
				} else {
					e.logger.Debug("Renewed connection successfully")
				}
			}
		}
	}()
}
