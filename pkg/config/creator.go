package config

import (
	"github.com/tauraamui/framerelay/internal/config"
	"github.com/tauraamui/framerelay/pkg/configdef"
)

type Creator interface {
	configdef.Creator
}

func DefaultCreator() Creator {
	return config.DefaultCreator()
}
