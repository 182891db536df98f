package database

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tauraamui/framerelay/pkg/database/models"
	"github.com/tauraamui/framerelay/pkg/database/repos"
	"github.com/tauraamui/framerelay/pkg/log"
	"github.com/tauraamui/xerror"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	vendorName       = "tauraamui"
	appName          = "framerelay"
	databaseFileName = "frames.db"
	databaseEnvVar   = "FRAMERELAY_DB"
)

var (
	ErrCreateDBFile    = xerror.New("unable to create database file")
	ErrDBAlreadyExists = xerror.New("database file already exists")
)

var uc = os.UserCacheDir
var fs = afero.NewOsFs()

// Setup creates the saved frame index file and its tables. An empty
// configured path falls back to ResolvePath.
func Setup(configured string) error {
	log.Info("Creating database file...") //nolint

	path, err := IndexPath(configured)
	if err != nil {
		return err
	}

	if err := createFile(path); err != nil {
		return err
	}

	if _, err := Open(path); err != nil {
		return err
	}

	log.Info("Created saved frame index at %s", path) //nolint
	return nil
}

func Destroy(configured string) error {
	dbFilePath, err := IndexPath(configured)
	if err != nil {
		return xerror.Errorf("unable to delete database file: %w", err)
	}

	return fs.Remove(dbFilePath)
}

// Connect opens the index at the configured path, or its default location.
func Connect(configured string) (repos.GormWrapper, error) {
	dbPath, err := IndexPath(configured)
	if err != nil {
		return nil, err
	}
	return Open(dbPath)
}

func Open(path string) (repos.GormWrapper, error) {
	log.Debug("Connecting to DB: %s", path) //nolint
	db, err := openDBConnection(path)
	if err != nil {
		return nil, xerror.Errorf("unable to open db connection: %w", err)
	}

	err = models.AutoMigrate(db)
	if err != nil {
		return nil, xerror.Errorf("unable to run automigrations: %w", err)
	}

	return repos.Wrap(db), nil
}

var openDBConnection = func(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

// ResolvePath prefers FRAMERELAY_DB, then the user cache directory.
func ResolvePath() (string, error) {
	databasePath := os.Getenv(databaseEnvVar)
	if len(databasePath) > 0 {
		return databasePath, nil
	}

	databaseParentDir, err := uc()
	if err != nil {
		return "", xerror.Errorf("unable to resolve %s database file location: %w", databaseFileName, err)
	}

	return filepath.Join(
		databaseParentDir,
		vendorName,
		appName,
		databaseFileName), nil
}

// IndexPath returns configured when set, otherwise ResolvePath.
func IndexPath(configured string) (string, error) {
	if len(configured) > 0 {
		return configured, nil
	}
	return ResolvePath()
}

// Exists reports whether an index file is present at path.
func Exists(path string) (bool, error) {
	return afero.Exists(fs, path)
}

func createFile(path string) error {
	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		fs.MkdirAll(filepath.Dir(path), os.ModeDir|os.ModePerm) //nolint

		f, err := fs.Create(path)
		if err != nil {
			return xerror.Errorf("%v: %w", ErrCreateDBFile, err)
		}
		return f.Close()
	}

	return xerror.Errorf("%w: %s", ErrDBAlreadyExists, path)
}
