package videostorage

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

var fs = afero.NewOsFs()

var encodePNG = func(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// Store persists single frames as image files inside one directory.
type Store interface {
	Init(dir string) error
	Dir() string
	Save(name string, mat gocv.Mat) (string, error)
}

func NewPNGStore() Store {
	return &pngStore{}
}

type pngStore struct {
	dir string
}

func (s *pngStore) Init(dir string) error {
	if len(dir) == 0 {
		return xerror.New("output directory must not be empty")
	}
	if err := fs.MkdirAll(dir, os.ModePerm); err != nil {
		return xerror.Errorf("unable to create output directory %s: %w", dir, err)
	}
	s.dir = dir
	return nil
}

func (s *pngStore) Dir() string {
	return s.dir
}

// Save encodes mat as PNG and writes it to name inside the store's directory,
// returning the written path.
func (s *pngStore) Save(name string, mat gocv.Mat) (string, error) {
	if mat.Empty() {
		return "", xerror.Errorf("unable to save %s: frame is empty", name)
	}

	buf, err := encodePNG(mat)
	if err != nil {
		return "", xerror.Errorf("unable to encode %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	if err := afero.WriteFile(fs, path, buf, 0644); err != nil {
		return "", xerror.Errorf("unable to write %s: %w", path, err)
	}

	return path, nil
}
