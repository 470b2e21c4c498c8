package config

const (
	defaultRawDir               = "~/data/raw"
	defaultCalibrationDB        = "~/.local/share/quicklook/cals.db"
	defaultOutputDir            = "~/.local/share/quicklook/output"
	defaultLogDir               = "~/.local/share/quicklook/logs"
	defaultInstrument           = "virus"
	defaultScienceBase          = "sci"
	defaultTwilightBase         = "twi"
	defaultChannel              = "red"
	defaultChunkRows            = 112
	defaultBackgroundPercentile = 20
	defaultCalLookbackDays      = 30
	defaultWaveStart            = 3470.0
	defaultWaveEnd              = 5542.0
	defaultWaveStep             = 2.0
	defaultSkyExtent            = 25.0
	defaultSkyBins              = 401
	defaultSmoothSigma          = 7.0
	defaultLogFormat            = "auto"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RawDir:        defaultRawDir,
			CalibrationDB: defaultCalibrationDB,
			OutputDir:     defaultOutputDir,
			LogDir:        defaultLogDir,
		},
		Observation: Observation{
			Instrument:   defaultInstrument,
			ScienceBase:  defaultScienceBase,
			TwilightBase: defaultTwilightBase,
		},
		Reduction: Reduction{
			Channel:              defaultChannel,
			ChunkRows:            defaultChunkRows,
			BackgroundPercentile: defaultBackgroundPercentile,
			CalLookbackDays:      defaultCalLookbackDays,
		},
		Grid: Grid{
			WaveStart:   defaultWaveStart,
			WaveEnd:     defaultWaveEnd,
			WaveStep:    defaultWaveStep,
			SkyExtent:   defaultSkyExtent,
			SkyBins:     defaultSkyBins,
			SmoothSigma: defaultSmoothSigma,
		},
		Export: Export{
			ImagePNG: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
