package detlite

import (
	"sync"

	"go.uber.org/multierr"
)

// Pool is a simple detector pool to run the same model from multiple
// goroutines, one interpreter per borrowed detector.
type Pool struct {
	// pool of detectors
	detectors chan *Detector
	// size of pool
	size int

	mu     sync.Mutex
	closed bool
}

// NewPool creates a new detector pool.  Every detector loads the same model
// with the same parameters.  device and factory follow the NewDetector
// rules.
func NewPool(size int, rt Runtime, modelFile string, device *Device,
	factory DelegateFactory, params Params) (*Pool, error) {

	p := &Pool{
		detectors: make(chan *Detector, size),
		size:      size,
	}

	for i := 0; i < size; i++ {
		d, err := NewDetector(rt, modelFile, device, factory, params)

		if err != nil {
			// close any instances that may have been created before
			// receiving the error
			_ = p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(d)
	}

	return p, nil
}

// Get a detector from the pool
func (p *Pool) Get() *Detector {
	return <-p.detectors
}

// Return a detector to the pool.  A detector returned after Close is closed
// rather than pooled, the channel no longer accepts it.
func (p *Pool) Return(d *Detector) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = d.Close()
		return
	}

	select {
	case p.detectors <- d:
	default:
		// pool is full
	}
}

// Close the pool and all detectors in it
func (p *Pool) Close() error {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	// close channel
	close(p.detectors)

	// close all detectors
	var err error

	for next := range p.detectors {
		err = multierr.Combine(err, next.Close())
	}

	return err
}
