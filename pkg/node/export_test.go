package node

import "time"

func OverloadNewTicker(overload func(time.Duration) (<-chan time.Time, func())) func() {
	newTickerRef := newTicker
	newTicker = overload
	return func() { newTicker = newTickerRef }
}
