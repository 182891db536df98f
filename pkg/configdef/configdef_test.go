package configdef_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/tauraamui/framerelay/pkg/configdef"
)

func validValues() configdef.Values {
	return configdef.Values{
		Topic:      "video_frames",
		QueueDepth: 10,
		Bus:        configdef.Bus{Address: "127.0.0.1:7447", RetryIntervalMS: 1000},
		Publisher: configdef.Publisher{
			VideoPath: "testvid.mp4", FrameIntervalMS: 33, FrameID: "camera", Backend: configdef.BackendOpenCV,
		},
		Subscriber: configdef.Subscriber{OutputDir: "saved_frames", SaveIntervalSeconds: 5},
	}
}

func TestValidatePopulatedConfigPassesValidation(t *testing.T) {
	is := is.New(t)
	is.NoErr(validValues().RunValidate())
}

func TestValidateEmptyConfigFailsOnMissingTopic(t *testing.T) {
	is := is.New(t)
	config := configdef.Values{}
	is.NoErr(json.Unmarshal([]byte(`{}`), &config))
	is.Equal(config.RunValidate().Error(), `Validation error in field "Topic" of type "string" using validator "empty=false"`)
}

func TestValidateFailsForZeroQueueDepth(t *testing.T) {
	is := is.New(t)
	config := validValues()
	config.QueueDepth = 0
	is.Equal(config.RunValidate().Error(), `Validation error in field "QueueDepth" of type "int" using validator "gte=1"`)
}

func TestValidateFailsForQueueDepthTooLarge(t *testing.T) {
	is := is.New(t)
	config := validValues()
	config.QueueDepth = 1001
	is.Equal(config.RunValidate().Error(), `Validation error in field "QueueDepth" of type "int" using validator "lte=1000"`)
}

func TestValidateFailsForMissingOutputDir(t *testing.T) {
	is := is.New(t)
	config := validValues()
	config.Subscriber.OutputDir = ""
	is.Equal(config.RunValidate().Error(), `Validation error in field "OutputDir" of type "string" using validator "empty=false"`)
}

func TestValidateFailsForZeroFrameInterval(t *testing.T) {
	is := is.New(t)
	config := validValues()
	config.Publisher.FrameIntervalMS = 0
	is.Equal(config.RunValidate().Error(), `Validation error in field "FrameIntervalMS" of type "int" using validator "gte=1"`)
}

func TestValidateFailsForUnknownBackend(t *testing.T) {
	is := is.New(t)
	config := validValues()
	config.Publisher.Backend = "gstreamer"
	is.True(config.RunValidate() != nil)
}

func TestValidateFailsForTopicContainingSlash(t *testing.T) {
	is := is.New(t)
	config := validValues()
	config.Topic = "video/frames"
	is.Equal(config.RunValidate().Error(), "validation failed: topic name must not contain '/'")
}

func TestIntervalsConvertToDurations(t *testing.T) {
	is := is.New(t)
	config := validValues()
	is.Equal(config.FrameInterval(), 33*time.Millisecond)
	is.Equal(config.SaveInterval(), 5*time.Second)
	is.Equal(config.RetryInterval(), time.Second)
}
