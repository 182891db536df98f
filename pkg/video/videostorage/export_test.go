package videostorage

import (
	"github.com/spf13/afero"
	"gocv.io/x/gocv"
)

func OverloadFS(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}

func OverloadEncodePNG(overload func(gocv.Mat) ([]byte, error)) func() {
	encodePNGRef := encodePNG
	encodePNG = overload
	return func() { encodePNG = encodePNGRef }
}
