package main

import (
	"os"

	"github.com/tauraamui/framerelay/internal/service"
	"github.com/tauraamui/framerelay/pkg/bus"
	"github.com/tauraamui/framerelay/pkg/config"
	"github.com/tauraamui/framerelay/pkg/configdef"
	"github.com/tauraamui/framerelay/pkg/log"
	"github.com/tauraamui/framerelay/pkg/node"
	"github.com/tauraamui/framerelay/pkg/relay"
	"github.com/tauraamui/framerelay/pkg/video/videobackend"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

const (
	name        = "framerelay_videopub"
	description = "Decodes a video file and publishes its frames on the frame bus"
	usage       = "Usage: videopub install | remove | start | stop | status"
	nodeName    = "video_publisher"
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
	log.Info("Starting video publisher...")

	local := bus.NewLocal()
	defer local.Close()

	server := bus.NewServer(local, bus.ServerSettings{
		Address:    values.Bus.Address,
		QueueDepth: values.QueueDepth,
		Secret:     values.Bus.Secret,
	})
	serverProc := node.NewProcessWithSettings(node.Settings{
		WaitForShutdownMsg: "Stopping bus server...",
		Process:            server.Serve,
	}).Setup()
	serverProc.Start()
	defer func() {
		serverProc.Stop()
		serverProc.Wait()
	}()

	n := node.New(nodeName)
	pub, err := relay.NewVideoPublisher(n, videobackend.Resolve(values.Publisher.Backend), relay.PublisherSettings{
		Bus:           local,
		Topic:         values.Topic,
		VideoPath:     values.Publisher.VideoPath,
		FrameID:       values.Publisher.FrameID,
		FrameInterval: values.FrameInterval(),
	})
	if err != nil {
		log.Error(err.Error())
	}

	proc := node.NewProcess(n).Setup()
	proc.Start()

	select {
	case sig := <-interrupt:
		service.LogSignal(sig)
		proc.Stop()
		proc.Wait()
	case <-proc.Done():
	case <-serverProc.Done():
		proc.Stop()
		proc.Wait()
		if err := serverProc.Err(); err != nil {
			return "", xerror.Errorf("bus server stopped: %w", err)
		}
	}

	if pub != nil {
		log.Info("Published %d frame(s)", pub.Published())
		pub.Close()
	}

	if count := gocv.MatProfile.Count(); count > 0 {
		log.Debug("%d OpenCV mat(s) still allocated", count)
	}

	if err := proc.Err(); err != nil {
		return "", err
	}

	return "Shutdown successful...", nil
}
