package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/tauraamui/framerelay/pkg/log"
)

type Process interface {
	Setup() Process
	Start()
	Stop()
	Wait()
	Done() <-chan interface{}
	Err() error
}

type Settings struct {
	WaitForShutdownMsg string
	Process            func(context.Context) error
}

// NewProcess runs a node's Spin as a Process.
func NewProcess(n *Node) Process {
	return NewProcessWithSettings(Settings{
		WaitForShutdownMsg: fmt.Sprintf("Stopping node [%s]...", n.Name()),
		Process:            n.Spin,
	})
}

func NewProcessWithSettings(settings Settings) Process {
	return &process{
		waitForShutdownMsg: settings.WaitForShutdownMsg,
		process:            settings.Process,
		stopping:           make(chan interface{}),
	}
}

type process struct {
	process            func(context.Context) error
	waitForShutdownMsg string
	canceller          context.CancelFunc
	stopping           chan interface{}
	startOnce          sync.Once
	mu                 sync.Mutex
	err                error
}

func (p *process) logShutdown() {
	if len(p.waitForShutdownMsg) > 0 {
		log.Info(p.waitForShutdownMsg)
	}
}

func (p *process) Setup() Process { return p }

func (p *process) Start() {
	p.startOnce.Do(func() {
		ctx, canceller := context.WithCancel(context.Background())
		p.mu.Lock()
		p.canceller = canceller
		p.mu.Unlock()

		go func() {
			err := p.process(ctx)
			p.mu.Lock()
			p.err = err
			p.mu.Unlock()
			close(p.stopping)
		}()
	})
}

func (p *process) Stop() {
	p.logShutdown()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.canceller != nil {
		p.canceller()
	}
}

func (p *process) Wait() {
	<-p.stopping
}

func (p *process) Done() <-chan interface{} {
	return p.stopping
}

// Err is the error the process finished with, nil until it has finished.
func (p *process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
