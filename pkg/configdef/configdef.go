package configdef

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/dealancer/validate.v2"
)

const (
	BackendOpenCV = "opencv"
	BackendMock   = "mock"
)

type Bus struct {
	Address         string `json:"address" validate:"empty=false"`
	Secret          string `json:"secret"`
	RetryIntervalMS int    `json:"retry_interval_ms" validate:"gte=0"`
}

type Publisher struct {
	VideoPath       string `json:"video_path" validate:"empty=false"`
	FrameIntervalMS int    `json:"frame_interval_ms" validate:"gte=1"`
	FrameID         string `json:"frame_id"`
	Backend         string `json:"backend" validate:"one_of=opencv,mock"`
}

type Subscriber struct {
	OutputDir           string `json:"output_dir" validate:"empty=false"`
	SaveIntervalSeconds int    `json:"save_interval_seconds" validate:"gte=1"`
	IndexDB             string `json:"index_db"`
}

type Values struct {
	Topic      string     `json:"topic" validate:"empty=false"`
	QueueDepth int        `json:"queue_depth" validate:"gte=1 & lte=1000"`
	Bus        Bus        `json:"bus"`
	Publisher  Publisher  `json:"publisher"`
	Subscriber Subscriber `json:"subscriber"`
}

func (v Values) FrameInterval() time.Duration {
	return time.Duration(v.Publisher.FrameIntervalMS) * time.Millisecond
}

func (v Values) SaveInterval() time.Duration {
	return time.Duration(v.Subscriber.SaveIntervalSeconds) * time.Second
}

func (v Values) RetryInterval() time.Duration {
	return time.Duration(v.Bus.RetryIntervalMS) * time.Millisecond
}

func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if strings.Contains(v.Topic, "/") {
		return fmt.Errorf(validationErrorHeader, errors.New("topic name must not contain '/'"))
	}
	return nil
}
