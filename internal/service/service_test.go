package service_test

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/takama/daemon"
	"github.com/tauraamui/framerelay/internal/service"
)

type fakeDaemon struct {
	daemon.Daemon
	called []string
}

func (d *fakeDaemon) Install(args ...string) (string, error) {
	d.called = append(d.called, "install")
	return "installed", nil
}

func (d *fakeDaemon) Remove() (string, error) {
	d.called = append(d.called, "remove")
	return "removed", nil
}

func (d *fakeDaemon) Start() (string, error) {
	d.called = append(d.called, "start")
	return "started", nil
}

func (d *fakeDaemon) Stop() (string, error) {
	d.called = append(d.called, "stop")
	return "stopped", nil
}

func (d *fakeDaemon) Status() (string, error) {
	d.called = append(d.called, "status")
	return "running", nil
}

func TestManageDispatchesDaemonVerbs(t *testing.T) {
	is := is.New(t)
	d := &fakeDaemon{}
	svc := service.New(d, "usage", func() (string, error) {
		t.Error("run must not be called for a daemon verb")
		return "", nil
	})

	for verb, expected := range map[string]string{
		"install": "installed",
		"remove":  "removed",
		"start":   "started",
		"stop":    "stopped",
		"status":  "running",
	} {
		status, err := svc.Manage([]string{verb})
		is.NoErr(err)
		is.Equal(status, expected)
	}
	is.Equal(len(d.called), 5)
}

func TestManagePrintsUsageForUnknownVerb(t *testing.T) {
	is := is.New(t)
	svc := service.New(&fakeDaemon{}, "Usage: videopub install | remove | start | stop | status", nil)

	status, err := svc.Manage([]string{"dance"})
	is.NoErr(err)
	is.Equal(status, "Usage: videopub install | remove | start | stop | status")
}

func TestManageRunsNodeWithoutVerb(t *testing.T) {
	is := is.New(t)
	failure := errors.New("no space left on device")

	svc := service.New(&fakeDaemon{}, "usage", func() (string, error) {
		return "", failure
	})

	_, err := svc.Manage(nil)
	is.True(errors.Is(err, failure))
}
