package service

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tacusci/logging/v2"
	"github.com/takama/daemon"
	"github.com/tauraamui/framerelay/pkg/log"
)

const loggingLevelEnvVar = "FRAMERELAY_LOGGING_LEVEL"

// Service wraps a node binary so it can also install and control itself
// as a system daemon.
type Service struct {
	daemon.Daemon
	usage string
	run   func() (string, error)
}

func New(d daemon.Daemon, usage string, run func() (string, error)) *Service {
	return &Service{Daemon: d, usage: usage, run: run}
}

// Manage handles a management verb from args, or runs the node when there is none.
func (service *Service) Manage(args []string) (string, error) {
	if len(args) > 0 {
		command := args[0]
		switch command {
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return service.usage, nil
		}
	}

	return service.run()
}

// Interrupt delivers SIGINT or SIGTERM.
func Interrupt() <-chan os.Signal {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	return interrupt
}

// LogSignal clears the terminal's echoed ^C before logging.
func LogSignal(sig os.Signal) {
	fmt.Print("\r")
	log.Warn("Received signal: %s", sig)
}

// Main configures logging from the environment, then manages the daemon named
// name, exiting 1 on any error.
func Main(name, description, usage string, run func() (string, error)) {
	log.SetLevelFromString(os.Getenv(loggingLevelEnvVar))

	daemonType := daemon.SystemDaemon
	if runtime.GOOS == "darwin" {
		daemonType = daemon.UserAgent
	}

	srv, err := daemon.New(name, description, daemonType)
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	status, err := New(srv, usage, run).Manage(os.Args[1:])
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	logging.Info(status) //nolint
}
