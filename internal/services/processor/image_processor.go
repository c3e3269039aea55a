package processor

import (
	"errors"
	"fmt"
	"image"

	"github.com/phambaophuc/flag-avatar/internal/config"
	"github.com/phambaophuc/flag-avatar/internal/services/geometry"
)

var (
	ErrCropOutOfBounds = errors.New("out-of-bounds crop")
	ErrInvalidImage    = errors.New("invalid image")
)

const (
	DefaultOutputSize = 236
	DefaultFinalSize  = 256
)

type Options struct {
	OutputSize int
	FinalSize  int
	Rounding   geometry.Rounding
	// Flag is the composite background. Nil selects the built-in flag.
	Flag image.Image
}

type ImageProcessor struct {
	outputSize int
	finalSize  int
	rounding   geometry.Rounding
	flag       image.Image
	avatarMask *image.Alpha
	flagMask   *image.Alpha
}

func NewImageProcessor(opts Options) (*ImageProcessor, error) {
	if opts.OutputSize <= 0 {
		opts.OutputSize = DefaultOutputSize
	}
	if opts.FinalSize <= 0 {
		opts.FinalSize = DefaultFinalSize
	}
	if opts.OutputSize > opts.FinalSize {
		return nil, fmt.Errorf("avatar size %d exceeds composite size %d", opts.OutputSize, opts.FinalSize)
	}
	if opts.Flag == nil {
		opts.Flag = DefaultFlag(opts.FinalSize)
	}

	return &ImageProcessor{
		outputSize: opts.OutputSize,
		finalSize:  opts.FinalSize,
		rounding:   opts.Rounding,
		flag:       opts.Flag,
		avatarMask: circleMask(opts.OutputSize),
		flagMask:   circleMask(opts.FinalSize),
	}, nil
}

// NewFromConfig builds a processor from the avatar section of the config,
// loading the flag background from disk when a path is set.
func NewFromConfig(cfg config.AvatarConfig) (*ImageProcessor, error) {
	rounding, err := geometry.ParseRounding(cfg.Rounding)
	if err != nil {
		return nil, err
	}

	var flag image.Image
	if cfg.FlagPath != "" {
		flag, err = LoadFlag(cfg.FlagPath)
		if err != nil {
			return nil, err
		}
	}

	return NewImageProcessor(Options{
		OutputSize: cfg.OutputSize,
		FinalSize:  cfg.FinalSize,
		Rounding:   rounding,
		Flag:       flag,
	})
}

func (p *ImageProcessor) OutputSize() int {
	return p.outputSize
}

func (p *ImageProcessor) FinalSize() int {
	return p.finalSize
}

func (p *ImageProcessor) Rounding() geometry.Rounding {
	return p.rounding
}
