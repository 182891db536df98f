package main

import (
	"context"
	"os"

	"github.com/tauraamui/framerelay/internal/service"
	"github.com/tauraamui/framerelay/pkg/bus"
	"github.com/tauraamui/framerelay/pkg/config"
	"github.com/tauraamui/framerelay/pkg/configdef"
	"github.com/tauraamui/framerelay/pkg/database"
	"github.com/tauraamui/framerelay/pkg/database/repos"
	"github.com/tauraamui/framerelay/pkg/log"
	"github.com/tauraamui/framerelay/pkg/node"
	"github.com/tauraamui/framerelay/pkg/relay"
	"github.com/tauraamui/framerelay/pkg/video/videostorage"
)

const (
	name        = "framerelay_videosub"
	description = "Subscribes to the frame bus and periodically saves frames as PNG files"
	usage       = "Usage: videosub install | remove | start | stop | status"
	nodeName    = "video_subscriber"
)

func main() {
	service.Main(name, description, usage, func() (string, error) {
		values, err := config.DefaultResolver().Resolve()
		if err != nil {
			return "", err
		}
		return run(values, service.Interrupt())
	})
}

func run(values configdef.Values, interrupt <-chan os.Signal) (string, error) {
	log.Info("Starting video subscriber...")

	sub := bus.Dial(context.Background(), bus.ClientSettings{
		Address:       values.Bus.Address,
		Topic:         values.Topic,
		QueueDepth:    values.QueueDepth,
		RetryInterval: values.RetryInterval(),
		Secret:        values.Bus.Secret,
		Subject:       nodeName,
	})

	settings := relay.SubscriberSettings{
		OutputDir:    values.Subscriber.OutputDir,
		SaveInterval: values.SaveInterval(),
	}
	if index := openIndex(values.Subscriber.IndexDB); index != nil {
		settings.Index = index
	}

	n := node.New(nodeName)
	if _, err := relay.NewVideoSubscriber(n, sub, videostorage.NewPNGStore(), settings); err != nil {
		sub.Close()
		return "", err
	}

	proc := node.NewProcess(n).Setup()
	proc.Start()

	select {
	case sig := <-interrupt:
		service.LogSignal(sig)
		proc.Stop()
		proc.Wait()
	case <-proc.Done():
	}

	stats := sub.Stats()
	log.Info("Received %d frame(s), dropped %d", stats.Sent, stats.Dropped)

	if err := proc.Err(); err != nil {
		return "", err
	}

	return "Shutdown successful...", nil
}

// openIndex returns nil when indexing is disabled or the index cannot be
// opened. An empty configured path uses the index created by
// "framectl setup", when one exists.
func openIndex(configured string) *repos.SavedFrameRepository {
	path, err := database.IndexPath(configured)
	if err != nil {
		log.Warn("Saved frame index disabled: %s", err.Error())
		return nil
	}

	if len(configured) == 0 {
		exists, err := database.Exists(path)
		if err != nil || !exists {
			log.Debug("No saved frame index at %s, indexing disabled", path)
			return nil
		}
	}

	db, err := database.Open(path)
	if err != nil {
		log.Warn("Saved frame index disabled: %s", err.Error())
		return nil
	}
	log.Info("Indexing saved frames into %s", path)
	return &repos.SavedFrameRepository{DB: db}
}
