package capture

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// Canceller is polled by the acquisition loop between iterations.
type Canceller interface {
	Cancelled() bool
}

// Controller turns OS interrupts into a cancellation flag. The watcher only
// sets the flag and prints an acknowledgement; it never touches device,
// buffers or sink state.
type Controller struct {
	cancelled atomic.Bool
	out       io.Writer
	sigs      chan os.Signal
	done      chan struct{}
	release   sync.Once
	wg        sync.WaitGroup
}

func NewController(out io.Writer) *Controller {
	if out == nil {
		out = io.Discard
	}
	return &Controller{
		out:  out,
		sigs: make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
}

// Watch registers for the given signals, os.Interrupt if none, and flips the
// flag when one arrives.
func (c *Controller) Watch(signals ...os.Signal) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt}
	}
	signal.Notify(c.sigs, signals...)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.done:
				return
			case <-c.sigs:
				fmt.Fprintf(c.out, "\nAbort...\n")
				c.Cancel()
			}
		}
	}()
}

func (c *Controller) Cancel() {
	c.cancelled.Store(true)
}

func (c *Controller) Cancelled() bool {
	return c.cancelled.Load()
}

// Release deregisters the signal handler so that a later interrupt gets the
// default behaviour, and stops the watcher.
func (c *Controller) Release() {
	c.release.Do(func() {
		signal.Stop(c.sigs)
		close(c.done)
		c.wg.Wait()
	})
}
