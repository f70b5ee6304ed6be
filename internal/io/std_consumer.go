package io

import (
	"sync"

	"github.com/golang/glog"
)

type StandardConsumer struct {
	store *FileStore
}

func NewStandardConsumer(store *FileStore) *StandardConsumer {
	return &StandardConsumer{
		store: store,
	}
}

// Continually consumes WorkUnits submitted to a work channel writing the corresponding tile files.
// Works until the work channel is closed. Write errors are submitted to the error channel and the
// consumer keeps draining the channel, so producers never block on a dead pool.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()

	for work := range workchan {
		if err := c.store.write(work); err != nil {
			glog.Errorf("tile writer failed: %v", err)
			errchan <- err
		}
	}
}
