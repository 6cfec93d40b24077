package blur

import (
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/disintegration/imaging"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Config tunes the sharpness measurement.
type Config struct {
	// DownscaleFactor is the integer factor applied to both dimensions before
	// measuring, stabilizing the score against sensor noise. Values below 1
	// are treated as 1.
	DownscaleFactor int
	// EdgePercent is the fraction (0, 1] of highest-magnitude Laplacian
	// responses whose variance becomes the score. 1.0 measures the full
	// field. Values outside the range fall back to the default.
	EdgePercent float64
}

// DefaultConfig returns the measurement settings used across the toolset.
func DefaultConfig() Config {
	return Config{DownscaleFactor: 2, EdgePercent: 0.1}
}

// DefaultThreshold is the Laplacian variance below which a frame counts as
// blurry.
const DefaultThreshold = 100.0

// Result reports a classification outcome.
type Result struct {
	Score  float64
	Blurry bool
}

// Classifier computes sharpness scores. It is stateless and safe for
// concurrent use.
type Classifier struct {
	cfg Config
}

// New constructs a Classifier, normalizing out-of-range config values.
func New(cfg Config) *Classifier {
	if cfg.DownscaleFactor < 1 {
		cfg.DownscaleFactor = 1
	}
	if cfg.EdgePercent <= 0 || cfg.EdgePercent > 1 {
		cfg.EdgePercent = DefaultConfig().EdgePercent
	}
	return &Classifier{cfg: cfg}
}

// Score computes the sharpness score for an image.
func (c *Classifier) Score(img image.Image) float64 {
	gray := imaging.Grayscale(img)

	bounds := gray.Bounds()
	width := bounds.Dx() / c.cfg.DownscaleFactor
	height := bounds.Dy() / c.cfg.DownscaleFactor
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	small := imaging.Resize(gray, width, height, imaging.Box)

	responses := laplacianResponses(small)
	if len(responses) == 0 {
		return 0
	}
	return topVariance(responses, c.cfg.EdgePercent)
}

// Classify scores the image and compares against the threshold. Lower
// variance means fewer or weaker edges, so blurry = score < threshold.
func (c *Classifier) Classify(img image.Image, threshold float64) Result {
	score := c.Score(img)
	return Result{Score: score, Blurry: score < threshold}
}

// ClassifyFile decodes and classifies an image file. Decode failures return
// a blurry verdict alongside the error so callers fail safe toward
// rejection.
func (c *Classifier) ClassifyFile(path string, threshold float64) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{Blurry: true}, fmt.Errorf("open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return Result{Blurry: true}, fmt.Errorf("decode image %s: %w", path, err)
	}
	return c.Classify(img, threshold), nil
}

// laplacianResponses computes absolute 4-neighbour Laplacian responses over
// the interior of a grayscale NRGBA image. After Grayscale all channels are
// equal, so the red channel serves as intensity.
func laplacianResponses(img *image.NRGBA) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < 3 || height < 3 {
		return nil
	}

	intensity := func(x, y int) float64 {
		return float64(img.Pix[y*img.Stride+x*4])
	}

	responses := make([]float64, 0, (width-2)*(height-2))
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			lap := 4*intensity(x, y) - intensity(x-1, y) - intensity(x+1, y) - intensity(x, y-1) - intensity(x, y+1)
			if lap < 0 {
				lap = -lap
			}
			responses = append(responses, lap)
		}
	}
	return responses
}

// topVariance computes the population variance of the top fraction of
// values.
func topVariance(values []float64, fraction float64) float64 {
	count := int(float64(len(values)) * fraction)
	if count < 1 {
		count = 1
	}
	if count > len(values) {
		count = len(values)
	}

	sort.Float64s(values)
	top := values[len(values)-count:]

	var sum float64
	for _, v := range top {
		sum += v
	}
	mean := sum / float64(len(top))

	var variance float64
	for _, v := range top {
		diff := v - mean
		variance += diff * diff
	}
	return variance / float64(len(top))
}
