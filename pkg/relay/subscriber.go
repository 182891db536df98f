package relay

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/tauraamui/framerelay/pkg/bus"
	"github.com/tauraamui/framerelay/pkg/database/models"
	"github.com/tauraamui/framerelay/pkg/imagemsg"
	"github.com/tauraamui/framerelay/pkg/node"
	"github.com/tauraamui/framerelay/pkg/video/videostorage"
	"github.com/tauraamui/xerror"
)

// FrameIndex records saved frames, repos.SavedFrameRepository satisfies it.
type FrameIndex interface {
	Create(*models.SavedFrame) error
}

type SubscriberSettings struct {
	OutputDir    string
	SaveInterval time.Duration
	Index        FrameIndex
}

// VideoSubscriber saves the first frame it sees once SaveInterval has
// passed since the last save, naming files frame_<n>.png from zero.
type VideoSubscriber struct {
	n            *node.Node
	store        videostorage.Store
	index        FrameIndex
	saveInterval time.Duration
	lastSaved    time.Time
	counter      int
}

func NewVideoSubscriber(
	n *node.Node, sub bus.Subscription, store videostorage.Store, settings SubscriberSettings,
) (*VideoSubscriber, error) {
	if len(settings.OutputDir) == 0 {
		settings.OutputDir = DefaultOutputDir
	}
	if settings.SaveInterval <= 0 {
		settings.SaveInterval = DefaultSaveInterval
	}

	if err := store.Init(settings.OutputDir); err != nil {
		return nil, err
	}

	s := &VideoSubscriber{
		n:            n,
		store:        store,
		index:        settings.Index,
		saveInterval: settings.SaveInterval,
		lastSaved:    n.Now(),
	}
	n.CreateSubscription(sub, s.onImage)

	return s, nil
}

// Counter is the sequence number the next saved frame will get.
func (s *VideoSubscriber) Counter() int {
	return s.counter
}

func (s *VideoSubscriber) LastSaved() time.Time {
	return s.lastSaved
}

func (s *VideoSubscriber) onImage(msg imagemsg.Image) error {
	now := s.n.Now()
	if now.Sub(s.lastSaved) < s.saveInterval {
		return nil
	}

	mat, err := imagemsg.ToMat(msg, imagemsg.BGR8)
	if err != nil {
		s.n.Logger().Error("image conversion exception: %s", err.Error())
		return nil
	}
	defer mat.Close()

	name := fmt.Sprintf("frame_%d.png", s.counter)
	path, err := s.store.Save(name, mat)
	if err != nil {
		return xerror.Errorf("unable to save frame: %w", err)
	}
	s.n.Logger().Info("Saved frame: %s", path)

	s.record(name, path, msg)

	s.lastSaved = now
	s.counter++
	return nil
}

func (s *VideoSubscriber) record(name, path string, msg imagemsg.Image) {
	if s.index == nil {
		return
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	err := s.index.Create(&models.SavedFrame{
		Sequence: s.counter,
		FileName: name,
		Path:     path,
		Stamp:    msg.Header.Stamp,
		Width:    msg.Width,
		Height:   msg.Height,
		Encoding: msg.Encoding,
	})
	if err != nil {
		s.n.Logger().Warn("Unable to index saved frame [%s]: %s", name, err.Error())
	}
}
