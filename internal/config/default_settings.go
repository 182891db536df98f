package config

import "github.com/tauraamui/framerelay/pkg/configdef"

type defaultSettingKey uint

const (
	TOPIC               defaultSettingKey = 0x0
	QUEUEDEPTH          defaultSettingKey = 0x1
	BUSADDRESS          defaultSettingKey = 0x2
	BUSRETRYINTERVALMS  defaultSettingKey = 0x3
	VIDEOPATH           defaultSettingKey = 0x4
	FRAMEINTERVALMS     defaultSettingKey = 0x5
	FRAMEID             defaultSettingKey = 0x6
	VIDEOBACKEND        defaultSettingKey = 0x7
	OUTPUTDIR           defaultSettingKey = 0x8
	SAVEINTERVALSECONDS defaultSettingKey = 0x9
)

var defaultSettings = map[defaultSettingKey]interface{}{
	TOPIC:               "video_frames",
	QUEUEDEPTH:          10,
	BUSADDRESS:          "127.0.0.1:7447",
	BUSRETRYINTERVALMS:  1000,
	VIDEOPATH:           "testvid.mp4",
	FRAMEINTERVALMS:     33,
	FRAMEID:             "camera",
	VIDEOBACKEND:        configdef.BackendOpenCV,
	OUTPUTDIR:           "saved_frames",
	SAVEINTERVALSECONDS: 5,
}

func defaultValues() configdef.Values {
	return configdef.Values{
		Topic:      defaultSettings[TOPIC].(string),
		QueueDepth: defaultSettings[QUEUEDEPTH].(int),
		Bus: configdef.Bus{
			Address:         defaultSettings[BUSADDRESS].(string),
			RetryIntervalMS: defaultSettings[BUSRETRYINTERVALMS].(int),
		},
		Publisher: configdef.Publisher{
			VideoPath:       defaultSettings[VIDEOPATH].(string),
			FrameIntervalMS: defaultSettings[FRAMEINTERVALMS].(int),
			FrameID:         defaultSettings[FRAMEID].(string),
			Backend:         defaultSettings[VIDEOBACKEND].(string),
		},
		Subscriber: configdef.Subscriber{
			OutputDir:           defaultSettings[OUTPUTDIR].(string),
			SaveIntervalSeconds: defaultSettings[SAVEINTERVALSECONDS].(int),
		},
	}
}

// Defaults returns the values used when no config file is present.
func Defaults() configdef.Values {
	return defaultValues()
}
