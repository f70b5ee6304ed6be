package io

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/vegetation_tiler/internal/scene"
)

var ErrStoreClosed = errors.New("tile store closed")

// Store submitting every Save as a WorkUnit to a pool of StandardConsumer goroutines.
// Saved nodes must not be modified afterwards.
type AsyncFileStore struct {
	*FileStore
	work      chan *WorkUnit
	errs      chan error
	consumers sync.WaitGroup
	collector sync.WaitGroup

	mu     sync.Mutex
	err    error
	closed bool
}

func NewAsyncFileStore(basePath string, workers int) *AsyncFileStore {
	if workers < 1 {
		workers = 1
	}
	s := &AsyncFileStore{
		FileStore: NewFileStore(basePath),
		work:      make(chan *WorkUnit, workers*4),
		errs:      make(chan error, workers),
	}

	s.collector.Add(1)
	go s.collect()

	s.consumers.Add(workers)
	for i := 0; i < workers; i++ {
		go NewStandardConsumer(s.FileStore).Consume(s.work, s.errs, &s.consumers)
	}
	return s
}

func (s *AsyncFileStore) collect() {
	defer s.collector.Done()
	for err := range s.errs {
		s.mu.Lock()
		s.err = multierr.Append(s.err, err)
		s.mu.Unlock()
	}
}

// Queues the node for writing. Returns the write errors observed so far, so that callers can
// stop producing work as soon as the pool fails.
func (s *AsyncFileStore) Save(fileName string, node scene.Node) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.work <- &WorkUnit{Node: node, FileName: fileName, BasePath: s.BasePath()}
	return nil
}

func (s *AsyncFileStore) Close() error {
	s.mu.Lock()
	if s.closed {
		err := s.err
		s.mu.Unlock()
		return err
	}
	s.closed = true
	s.mu.Unlock()

	close(s.work)
	s.consumers.Wait()
	close(s.errs)
	s.collector.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
