package paramdeck

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/paramdeck/paramdeck/util"
)

// CanonicalConfig provides application-wide access to configuration fields,
// as well as loading/file watching logic for paramdeck's configuration file
type CanonicalConfig struct {
	FaderMapping *faderMap

	// Parameters holds the user-defined engine parameters, keyed by name
	Parameters map[string]ParamDef

	ConnectionInfo struct {
		COMPort  string
		BaudRate int
	}

	EngineInfo struct {
		Address string
		Port    int
	}

	InvertFaders bool

	NoiseReductionLevel string

	logger             *zap.SugaredLogger
	notifier           Notifier
	stopWatcherChannel chan bool

	reloadConsumers []chan bool

	userConfig     *viper.Viper
	internalConfig *viper.Viper
}

// ParamDef describes a single engine parameter's range and initial value
type ParamDef struct {
	Min     float32 `mapstructure:"min"`
	Max     float32 `mapstructure:"max"`
	Default float32 `mapstructure:"default"`
}

const (
	userConfigFilepath     = "config.yaml"
	internalConfigFilepath = "preferences.yaml"

	userConfigName     = "config"
	internalConfigName = "preferences"

	userConfigPath = "."

	configType = "yaml"

	configKeyFaderMapping        = "fader_mapping"
	configKeyParameters          = "parameters"
	configKeyInvertFaders        = "invert_faders"
	configKeyCOMPort             = "com_port"
	configKeyBaudRate            = "baud_rate"
	configKeyNoiseReductionLevel = "noise_reduction"
	configKeyEngineAddress       = "engine_address"
	configKeyEnginePort          = "engine_port"

	defaultCOMPort  = "COM4"
	defaultBaudRate = 9600

	// the engine's UDP listener defaults to port 10000 on the local machine
	defaultEngineAddress = "127.0.0.1"
	defaultEnginePort    = 10000
)

// has to be defined as a non-constant because we're using path.Join
var internalConfigPath = path.Join(".", logDirectory)

// NewConfig creates a config instance for the deck object and sets up viper instances for paramdeck's config files
func NewConfig(logger *zap.SugaredLogger, notifier Notifier) (*CanonicalConfig, error) {
	logger = logger.Named("config")

	cc := &CanonicalConfig{
		logger:             logger,
		notifier:           notifier,
		reloadConsumers:    []chan bool{},
		stopWatcherChannel: make(chan bool),
	}

	// distinguish between the user-provided config (config.yaml) and the internal config (logs/preferences.yaml)
	userConfig := viper.New()
	userConfig.SetConfigName(userConfigName)
	userConfig.SetConfigType(configType)
	userConfig.AddConfigPath(userConfigPath)

	userConfig.SetDefault(configKeyFaderMapping, map[string][]string{})
	userConfig.SetDefault(configKeyParameters, map[string]map[string]float32{})
	userConfig.SetDefault(configKeyInvertFaders, false)
	userConfig.SetDefault(configKeyCOMPort, defaultCOMPort)
	userConfig.SetDefault(configKeyBaudRate, defaultBaudRate)
	userConfig.SetDefault(configKeyEngineAddress, defaultEngineAddress)
	userConfig.SetDefault(configKeyEnginePort, defaultEnginePort)

	internalConfig := viper.New()
	internalConfig.SetConfigName(internalConfigName)
	internalConfig.SetConfigType(configType)
	internalConfig.AddConfigPath(internalConfigPath)

	cc.userConfig = userConfig
	cc.internalConfig = internalConfig

	logger.Debug("Created config instance")

	return cc, nil
}

// Load reads paramdeck's config files from disk and tries to parse them
func (cc *CanonicalConfig) Load() error {
	cc.logger.Debugw("Loading config", "path", userConfigFilepath)

	// make sure it exists
	if !util.FileExists(userConfigFilepath) {
		cc.logger.Warnw("Config file not found", "path", userConfigFilepath)
		cc.notifier.Notify("Can't find configuration!",
			fmt.Sprintf("%s must be in the same directory as paramdeck. Please re-launch", userConfigFilepath))

		return fmt.Errorf("config file doesn't exist: %s", userConfigFilepath)
	}

	// load the user config
	if err := cc.userConfig.ReadInConfig(); err != nil {
		cc.logger.Warnw("Viper failed to read user config", "error", err)

		// if the error is yaml-format-related, show a sensible error. otherwise, show 'em to the logs
		if strings.Contains(err.Error(), "yaml:") {
			cc.notifier.Notify("Invalid configuration!",
				fmt.Sprintf("Please make sure %s is in a valid YAML format.", userConfigFilepath))
		} else {
			cc.notifier.Notify("Error loading configuration!", "Please check paramdeck's logs for more details.")
		}

		return fmt.Errorf("read user config: %w", err)
	}

	// load the internal config - this doesn't have to exist, so it can error
	if err := cc.internalConfig.ReadInConfig(); err != nil {
		cc.logger.Debugw("Viper failed to read internal config", "error", err, "reminder", "this is fine")
	}

	// canonize the configuration with viper's helpers
	if err := cc.populateFromVipers(); err != nil {
		cc.logger.Warnw("Failed to populate config fields", "error", err)
		return fmt.Errorf("populate config fields: %w", err)
	}

	cc.logger.Info("Loaded config successfully")
	cc.logger.Infow("Config values",
		"faderMapping", cc.FaderMapping,
		"parameters", cc.Parameters,
		"connectionInfo", cc.ConnectionInfo,
		"engineInfo", cc.EngineInfo,
		"invertFaders", cc.InvertFaders)

	return nil
}

// SubscribeToChanges allows external components to receive updates when the config is reloaded
func (cc *CanonicalConfig) SubscribeToChanges() chan bool {
	c := make(chan bool)
	cc.reloadConsumers = append(cc.reloadConsumers, c)

	return c
}

// WatchConfigFileChanges starts watching for configuration file changes
// and attempts reloading the config when they happen
func (cc *CanonicalConfig) WatchConfigFileChanges() {
	cc.logger.Debugw("Starting to watch user config file for changes", "path", userConfigFilepath)

	const (
		minTimeBetweenReloadAttempts = time.Millisecond * 500
		delayBetweenEventAndReload   = time.Millisecond * 50
	)

	lastAttemptedReload := time.Now()

	// establish watch using viper as opposed to doing it ourselves, though our internal cooldown is still required
	cc.userConfig.WatchConfig()
	cc.userConfig.OnConfigChange(func(event fsnotify.Event) {

		// when we get a write event...
		if event.Op&fsnotify.Write == fsnotify.Write {

			now := time.Now()

			// ... check if it's not a duplicate (many editors will write to a file twice)
			if lastAttemptedReload.Add(minTimeBetweenReloadAttempts).Before(now) {

				// and attempt reload if appropriate
				cc.logger.Debugw("Config file modified, attempting reload", "event", event)

				// wait a bit to let the editor actually flush the new file contents to disk
				<-time.After(delayBetweenEventAndReload)

				if err := cc.Load(); err != nil {
					cc.logger.Warnw("Failed to reload config file", "error", err)
				} else {
					cc.logger.Info("Reloaded config successfully")
					cc.notifier.Notify("Configuration reloaded!", "Your changes have been applied.")

					cc.onConfigReloaded()
				}

				// don't forget to update the time
				lastAttemptedReload = now
			}
		}
	})

	// wait till they stop us
	<-cc.stopWatcherChannel
	cc.logger.Debug("Stopping user config file watcher")
	cc.userConfig.OnConfigChange(nil)
}

// StopWatchingConfigFile signals our filesystem watcher to stop
func (cc *CanonicalConfig) StopWatchingConfigFile() {
	cc.stopWatcherChannel <- true
}

func (cc *CanonicalConfig) populateFromVipers() error {

	// merge the fader mappings from the user and internal configs
	cc.FaderMapping = faderMapFromConfigs(
		cc.userConfig.GetStringMapStringSlice(configKeyFaderMapping),
		cc.internalConfig.GetStringMapStringSlice(configKeyFaderMapping),
	)

	// parse the parameter definitions, dropping any with a degenerate range.
	// the scaling helpers assume max > min, so this is the one place to enforce it
	parameters := map[string]ParamDef{}
	if err := cc.userConfig.UnmarshalKey(configKeyParameters, &parameters); err != nil {
		cc.logger.Warnw("Failed to unmarshal parameter definitions", "error", err)
		return fmt.Errorf("unmarshal parameter definitions: %w", err)
	}

	for name, def := range parameters {
		if def.Max <= def.Min {
			cc.logger.Warnw("Ignoring parameter with degenerate range",
				"parameter", name,
				"min", def.Min,
				"max", def.Max)

			delete(parameters, name)
		}
	}

	cc.Parameters = parameters

	// get the rest of the config fields - viper saves us a lot of effort here
	cc.ConnectionInfo.COMPort = cc.userConfig.GetString(configKeyCOMPort)

	cc.ConnectionInfo.BaudRate = cc.userConfig.GetInt(configKeyBaudRate)
	if cc.ConnectionInfo.BaudRate <= 0 {
		cc.logger.Warnw("Invalid baud rate specified, using default value",
			"key", configKeyBaudRate,
			"invalidValue", cc.ConnectionInfo.BaudRate,
			"defaultValue", defaultBaudRate)

		cc.ConnectionInfo.BaudRate = defaultBaudRate
	}

	cc.EngineInfo.Address = cc.userConfig.GetString(configKeyEngineAddress)

	cc.EngineInfo.Port = cc.userConfig.GetInt(configKeyEnginePort)
	if cc.EngineInfo.Port <= 0 || cc.EngineInfo.Port > 65535 {
		cc.logger.Warnw("Invalid engine port specified, using default value",
			"key", configKeyEnginePort,
			"invalidValue", cc.EngineInfo.Port,
			"defaultValue", defaultEnginePort)

		cc.EngineInfo.Port = defaultEnginePort
	}

	cc.InvertFaders = cc.userConfig.GetBool(configKeyInvertFaders)
	cc.NoiseReductionLevel = cc.userConfig.GetString(configKeyNoiseReductionLevel)

	cc.logger.Debug("Populated config fields from vipers")

	return nil
}

func (cc *CanonicalConfig) onConfigReloaded() {
	cc.logger.Debug("Notifying consumers about configuration reload")

	for _, consumer := range cc.reloadConsumers {
		consumer <- true
	}
}
