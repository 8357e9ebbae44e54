package execshell

import (
	"os"
	"os/signal"
	"sync"
)

// signalForwarder relays supervisor signals to a single child process. It is registered
// right before the child starts and deregistered right after the child is reaped.
type signalForwarder struct {
	signals    chan os.Signal
	done       chan struct{}
	forwarding sync.WaitGroup
	stopOnce   sync.Once
	enabled    bool
}

func startSignalForwarding() *signalForwarder {
	forwarder := &signalForwarder{
		done:    make(chan struct{}),
		enabled: len(forwardedSignals) > 0,
	}
	if !forwarder.enabled {
		return forwarder
	}

	forwarder.signals = make(chan os.Signal, len(forwardedSignals))
	signal.Notify(forwarder.signals, forwardedSignals...)
	return forwarder
}

// attach begins relaying received signals to the started process.
func (forwarder *signalForwarder) attach(process *os.Process) {
	if !forwarder.enabled || process == nil {
		return
	}

	forwarder.forwarding.Add(1)
	go func() {
		defer forwarder.forwarding.Done()
		for {
			select {
			case receivedSignal := <-forwarder.signals:
				_ = process.Signal(receivedSignal)
			case <-forwarder.done:
				return
			}
		}
	}()
}

func (forwarder *signalForwarder) stop() {
	forwarder.stopOnce.Do(func() {
		if forwarder.enabled {
			signal.Stop(forwarder.signals)
		}
		close(forwarder.done)
		forwarder.forwarding.Wait()
	})
}
