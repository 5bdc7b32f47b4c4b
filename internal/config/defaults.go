package config

const (
	defaultOutputDir               = "output"
	defaultLogDir                  = "~/.local/share/cdrip/logs"
	defaultStateDirFallback        = "~/.local/state/cdrip"
	defaultDriveLockTimeout        = 10
	defaultFormat                  = "opus"
	defaultRipSourceElement        = "cdparanoiasrc"
	defaultPlaybackSourceElement   = "cdiocddasrc"
	defaultPlaybackDecoderElement  = "decodebin3"
	defaultPlaybackSinkElement     = "autoaudiosink"
	defaultPlaybackQueueMaxTimeMS  = 5000
	defaultPlaybackQueueMaxBytes   = 10 * 1024 * 1024
	defaultPlaybackQueueMaxBuffers = 0
	defaultHistoryFile             = "history.db"
	defaultNotifyRequestTimeout    = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir(),
		},
		Drive: Drive{
			LockTimeout: defaultDriveLockTimeout,
		},
		Encoding: Encoding{
			DefaultFormat: defaultFormat,
			SourceElement: defaultRipSourceElement,
			VerifyTags:    true,
		},
		Playback: Playback{
			SourceElement:   defaultPlaybackSourceElement,
			DecoderElement:  defaultPlaybackDecoderElement,
			SinkElement:     defaultPlaybackSinkElement,
			QueueMaxTimeMS:  defaultPlaybackQueueMaxTimeMS,
			QueueMaxBytes:   defaultPlaybackQueueMaxBytes,
			QueueMaxBuffers: defaultPlaybackQueueMaxBuffers,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			BatchCompleted: true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
