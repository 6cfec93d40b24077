package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateBlur(); err != nil {
		return err
	}
	if err := c.validateCull(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateExtraction() error {
	if c.Extraction.FrameCount <= 0 {
		return errors.New("extraction.frame_count must be positive")
	}
	switch c.Extraction.Policy {
	case "even", "random", "combined":
	default:
		return fmt.Errorf("extraction.policy must be one of even, random, combined (got %q)", c.Extraction.Policy)
	}
	if c.Extraction.ExclusionMargin < 0 {
		return errors.New("extraction.exclusion_margin_seconds must not be negative")
	}
	if c.Extraction.MinDuration < 0 {
		return errors.New("extraction.min_duration_seconds must not be negative")
	}
	if c.Extraction.RetryAttempts < 1 {
		return errors.New("extraction.retry_attempts must be at least 1")
	}
	switch c.Extraction.OutputFormat {
	case "png", "jpg":
	default:
		return fmt.Errorf("extraction.output_format must be png or jpg (got %q)", c.Extraction.OutputFormat)
	}
	if c.Extraction.Workers < 0 {
		return errors.New("extraction.workers must not be negative")
	}
	return nil
}

func (c *Config) validateBlur() error {
	if c.Blur.Threshold < 0 {
		return errors.New("blur.threshold must not be negative")
	}
	if c.Blur.DownscaleFactor < 1 {
		return errors.New("blur.downscale_factor must be at least 1")
	}
	if c.Blur.EdgePercent <= 0 || c.Blur.EdgePercent > 1 {
		return errors.New("blur.edge_percent must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateCull() error {
	if c.Cull.MinWidth < 0 || c.Cull.MinHeight < 0 {
		return errors.New("cull.min_width and cull.min_height must not be negative")
	}
	if c.Cull.MinDuration < 0 {
		return errors.New("cull.min_duration_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateConvert() error {
	if c.Convert.Width < 0 {
		return errors.New("convert.width must not be negative")
	}
	if c.Convert.Codec == "" {
		return errors.New("convert.codec must be set")
	}
	if c.Convert.Workers < 0 {
		return errors.New("convert.workers must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
