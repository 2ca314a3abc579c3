package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const DefaultMaxPixels = 100_000_000

var ErrImageTooLarge = errors.New("image exceeds the pixel budget")

type DecoderServicer interface {
	DecodeBounds(r io.Reader) (ImageBounds, error)
	DecodeForDisplay(r io.Reader, maxEdge uint) (image.Image, error)
	EncodeJPEG(w io.Writer, img image.Image) error
}

type ImageBounds struct {
	Width  int
	Height int
	Format string
}

/*
DecodeError marks input that isn't a readable image, as opposed to a
failure reading it.
*/
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding image: %s", e.Err.Error())
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type DecoderServiceConfig struct {
	JpegQuality int
	MaxPixels   int
}

type DecoderService struct {
	jpegQuality int
	maxPixels   int
}

func NewDecoderService(config DecoderServiceConfig) DecoderService {
	if config.JpegQuality <= 0 || config.JpegQuality > 100 {
		config.JpegQuality = 85
	}

	if config.MaxPixels <= 0 {
		config.MaxPixels = DefaultMaxPixels
	}

	return DecoderService{
		jpegQuality: config.JpegQuality,
		maxPixels:   config.MaxPixels,
	}
}

/*
DecodeBounds reads only the image header.
*/
func (s DecoderService) DecodeBounds(r io.Reader) (ImageBounds, error) {
	var (
		err    error
		config image.Config
		format string
	)

	if config, format, err = image.DecodeConfig(r); err != nil {
		return ImageBounds{}, &DecodeError{Err: err}
	}

	return ImageBounds{
		Width:  config.Width,
		Height: config.Height,
		Format: format,
	}, nil
}

/*
DecodeForDisplay checks the header against the pixel budget before
decoding, then downsizes so the longest edge fits maxEdge.
*/
func (s DecoderService) DecodeForDisplay(r io.Reader, maxEdge uint) (image.Image, error) {
	var (
		err    error
		img    image.Image
		config image.Config
		header bytes.Buffer
	)

	if config, _, err = image.DecodeConfig(io.TeeReader(r, &header)); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if int64(config.Width)*int64(config.Height) > int64(s.maxPixels) {
		return nil, &DecodeError{Err: fmt.Errorf("%dx%d: %w", config.Width, config.Height, ErrImageTooLarge)}
	}

	if img, _, err = image.Decode(io.MultiReader(&header, r)); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return s.resize(img, maxEdge), nil
}

func (s DecoderService) EncodeJPEG(w io.Writer, img image.Image) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: s.jpegQuality}); err != nil {
		return fmt.Errorf("error encoding image: %w", err)
	}

	return nil
}

func (s DecoderService) resize(img image.Image, maxEdge uint) image.Image {
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if maxEdge == 0 || (width <= maxEdge && height <= maxEdge) {
		return img
	}

	/*
	 * Scale on the longest edge
	 */
	var newWidth, newHeight uint
	if width > height {
		newWidth = maxEdge
		newHeight = uint(float64(height) * (float64(maxEdge) / float64(width)))
	} else {
		newHeight = maxEdge
		newWidth = uint(float64(width) * (float64(maxEdge) / float64(height)))
	}

	if newWidth == 0 {
		newWidth = 1
	}

	if newHeight == 0 {
		newHeight = 1
	}

	return resize.Resize(newWidth, newHeight, img, resize.Lanczos3)
}
