package config

const (
	defaultLogDir          = "~/.local/share/framecull/logs"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultProbeTimeout    = 30
	defaultExtractTimeout  = 120
	defaultConvertTimeout  = 3600
	defaultFrameCount      = 10
	defaultPolicy          = "combined"
	defaultExclusionMargin = 60.0
	defaultMinDuration     = 120.0
	defaultRetryAttempts   = 3
	defaultOutputFormat    = "png"
	defaultBlurThreshold   = 100.0
	defaultDownscaleFactor = 2
	defaultEdgePercent     = 0.1
	defaultCullMinWidth    = 720
	defaultCullMinHeight   = 720
	defaultCullMinDuration = 300.0
	defaultConvertWidth    = 1920
	defaultConvertCodec    = "libsvtav1"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		FFmpeg: FFmpeg{
			ProbeTimeout:   defaultProbeTimeout,
			ExtractTimeout: defaultExtractTimeout,
			ConvertTimeout: defaultConvertTimeout,
		},
		Extraction: Extraction{
			FrameCount:      defaultFrameCount,
			Policy:          defaultPolicy,
			ExclusionMargin: defaultExclusionMargin,
			MinDuration:     defaultMinDuration,
			RetryAttempts:   defaultRetryAttempts,
			OutputFormat:    defaultOutputFormat,
		},
		Blur: Blur{
			Enabled:         true,
			Threshold:       defaultBlurThreshold,
			DownscaleFactor: defaultDownscaleFactor,
			EdgePercent:     defaultEdgePercent,
		},
		Cull: Cull{
			MinWidth:    defaultCullMinWidth,
			MinHeight:   defaultCullMinHeight,
			MinDuration: defaultCullMinDuration,
		},
		Convert: Convert{
			Width: defaultConvertWidth,
			Codec: defaultConvertCodec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
