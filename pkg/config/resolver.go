package config

import (
	"github.com/tauraamui/framerelay/internal/config"
	"github.com/tauraamui/framerelay/pkg/configdef"
)

type Resolver interface {
	configdef.Resolver
}

func DefaultResolver() Resolver {
	return config.DefaultResolver()
}

// Defaults returns the built in configuration values.
func Defaults() configdef.Values {
	return config.Defaults()
}
