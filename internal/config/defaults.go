package config

const (
	defaultInputRoot       = "/data/in"
	defaultOutputRoot      = "/data/out"
	defaultLogDir          = "~/.local/share/maskpipe/logs"
	defaultIndexSuffix     = "_indexed"
	defaultPredictorBinary = "sam2-predict"
	defaultPredictorModel  = "facebook/sam2-hiera-large"
	defaultPredictorDevice = "cuda"
	defaultPreviewFrames   = 6
	defaultPreviewDimAlpha = 0.9
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputRoot:  defaultInputRoot,
			OutputRoot: defaultOutputRoot,
			LogDir:     defaultLogDir,
		},
		Dataset: Dataset{
			IndexSuffix: defaultIndexSuffix,
			AutoIndex:   true,
		},
		Predictor: Predictor{
			Binary: defaultPredictorBinary,
			Model:  defaultPredictorModel,
			Device: defaultPredictorDevice,
		},
		Preview: Preview{
			FrameCount: defaultPreviewFrames,
			DimAlpha:   defaultPreviewDimAlpha,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
