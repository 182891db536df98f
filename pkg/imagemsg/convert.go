package imagemsg

import (
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type conversion struct {
	from, to string
}

var conversionCodes = map[conversion]gocv.ColorConversionCode{
	{BGR8, RGB8}:   gocv.ColorBGRToRGB,
	{BGR8, BGRA8}:  gocv.ColorBGRToBGRA,
	{BGR8, RGBA8}:  gocv.ColorBGRToRGBA,
	{BGR8, MONO8}:  gocv.ColorBGRToGray,
	{RGB8, BGR8}:   gocv.ColorRGBToBGR,
	{RGB8, RGBA8}:  gocv.ColorRGBToRGBA,
	{RGB8, BGRA8}:  gocv.ColorRGBToBGRA,
	{RGB8, MONO8}:  gocv.ColorRGBToGray,
	{BGRA8, BGR8}:  gocv.ColorBGRAToBGR,
	{BGRA8, RGB8}:  gocv.ColorBGRAToRGB,
	{BGRA8, RGBA8}: gocv.ColorBGRAToRGBA,
	{BGRA8, MONO8}: gocv.ColorBGRAToGray,
	{RGBA8, BGR8}:  gocv.ColorRGBAToBGR,
	{RGBA8, RGB8}:  gocv.ColorRGBAToRGB,
	{RGBA8, BGRA8}: gocv.ColorRGBAToBGRA,
	{RGBA8, MONO8}: gocv.ColorRGBAToGray,
	{MONO8, BGR8}:  gocv.ColorGrayToBGR,
	{MONO8, RGB8}:  gocv.ColorGrayToRGB,
	{MONO8, BGRA8}: gocv.ColorGrayToBGRA,
	{MONO8, RGBA8}: gocv.ColorGrayToRGBA,
}

// ToMat copies img into a new mat converted to the requested encoding. The
// caller owns the returned mat.
func ToMat(img Image, encoding string) (gocv.Mat, error) {
	if err := img.Validate(); err != nil {
		return gocv.Mat{}, err
	}

	target, err := lookupEncoding(encoding)
	if err != nil {
		return gocv.Mat{}, err
	}

	code, needsConversion := conversionCodes[conversion{from: img.Encoding, to: encoding}]
	if img.Encoding != encoding && !needsConversion {
		return gocv.Mat{}, xerror.Errorf("%w: %s to %s", ErrUnsupportedEncoding, img.Encoding, encoding)
	}

	source := encodings[img.Encoding]
	src, err := gocv.NewMatFromBytes(img.Height, img.Width, source.matType, packedRows(img, source.channels))
	if err != nil {
		return gocv.Mat{}, xerror.Errorf("unable to load image data into mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMatWithSize(img.Height, img.Width, target.matType)
	if needsConversion {
		gocv.CvtColor(src, &dst, code)
		return dst, nil
	}
	src.CopyTo(&dst)
	return dst, nil
}

// packedRows drops any per row padding so rows are exactly width*channels wide.
func packedRows(img Image, channels int) []byte {
	rowLen := img.Width * channels
	if img.Step == rowLen {
		return img.Data[:rowLen*img.Height]
	}

	packed := make([]byte, 0, rowLen*img.Height)
	for row := 0; row < img.Height; row++ {
		offset := row * img.Step
		packed = append(packed, img.Data[offset:offset+rowLen]...)
	}
	return packed
}
