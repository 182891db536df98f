package imagemsg

import (
	"time"

	"github.com/tauraamui/framerelay/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

// Pixel encodings understood by the relay, all 8 bits per channel.
const (
	BGR8  = "bgr8"
	RGB8  = "rgb8"
	BGRA8 = "bgra8"
	RGBA8 = "rgba8"
	MONO8 = "mono8"
)

var (
	ErrUnsupportedEncoding = xerror.New("unsupported image encoding")
	ErrInvalidImage        = xerror.New("invalid image")
)

type Header struct {
	Stamp   time.Time `json:"stamp"`
	FrameID string    `json:"frame_id"`
}

// Image is the envelope carried over the bus. Data is row major with Step
// bytes per row.
type Image struct {
	Header      Header `json:"header"`
	Height      int    `json:"height"`
	Width       int    `json:"width"`
	Encoding    string `json:"encoding"`
	IsBigEndian bool   `json:"is_bigendian"`
	Step        int    `json:"step"`
	Data        []byte `json:"data"`
}

type encodingInfo struct {
	channels int
	matType  gocv.MatType
}

var encodings = map[string]encodingInfo{
	BGR8:  {channels: 3, matType: gocv.MatTypeCV8UC3},
	RGB8:  {channels: 3, matType: gocv.MatTypeCV8UC3},
	BGRA8: {channels: 4, matType: gocv.MatTypeCV8UC4},
	RGBA8: {channels: 4, matType: gocv.MatTypeCV8UC4},
	MONO8: {channels: 1, matType: gocv.MatTypeCV8UC1},
}

func lookupEncoding(encoding string) (encodingInfo, error) {
	info, ok := encodings[encoding]
	if !ok {
		return encodingInfo{}, xerror.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}
	return info, nil
}

// Channels returns the number of 8 bit channels per pixel for encoding.
func Channels(encoding string) (int, error) {
	info, err := lookupEncoding(encoding)
	if err != nil {
		return 0, err
	}
	return info.channels, nil
}

func (img Image) Validate() error {
	info, err := lookupEncoding(img.Encoding)
	if err != nil {
		return err
	}
	if img.Width <= 0 || img.Height <= 0 {
		return xerror.Errorf("%w: dimensions %dx%d", ErrInvalidImage, img.Width, img.Height)
	}
	// bounds are checked by division so huge wire dimensions cannot overflow
	if img.Width > len(img.Data)/info.channels {
		return xerror.Errorf("%w: width %d exceeds %d bytes of data", ErrInvalidImage, img.Width, len(img.Data))
	}
	if img.Step < img.Width*info.channels {
		return xerror.Errorf("%w: step %d too small for width %d", ErrInvalidImage, img.Step, img.Width)
	}
	if img.Height > len(img.Data)/img.Step {
		return xerror.Errorf(
			"%w: %d rows of step %d exceed %d bytes of data", ErrInvalidImage, img.Height, img.Step, len(img.Data),
		)
	}
	return nil
}

// FromMat copies mat into a new image message tagged with encoding. The
// mat's type must match the encoding's channel layout.
func FromMat(mat gocv.Mat, encoding string, header Header) (Image, error) {
	info, err := lookupEncoding(encoding)
	if err != nil {
		return Image{}, err
	}
	if mat.Empty() {
		return Image{}, xerror.Errorf("%w: empty mat", ErrInvalidImage)
	}
	if mat.Type() != info.matType {
		return Image{}, xerror.Errorf(
			"%w: mat of type %d cannot be tagged as %s", ErrInvalidImage, mat.Type(), encoding,
		)
	}

	return Image{
		Header:   header,
		Height:   mat.Rows(),
		Width:    mat.Cols(),
		Encoding: encoding,
		Step:     mat.Cols() * info.channels,
		Data:     mat.ToBytes(),
	}, nil
}

// FromFrame wraps an OpenCV backed frame.
func FromFrame(frame videoframe.Frame, encoding string, header Header) (Image, error) {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return Image{}, xerror.New("must pass OpenCV frame to image message conversion")
	}
	return FromMat(*mat, encoding, header)
}
