package tutorchat

import (
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one exporter is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// DefaultPoolSize derives a pool size from the CPU count, clamped to
// [MinPoolSize, MaxPoolSize].
func DefaultPoolSize() int {
	n := runtime.NumCPU() / cpuDivisor
	if n < MinPoolSize {
		n = MinPoolSize
	}
	if n > MaxPoolSize {
		n = MaxPoolSize
	}
	return n
}

// ExportPool manages a pool of Service instances for concurrent export
// requests. Each service owns its own browser instance, enabling true
// parallelism. Services are created lazily on first acquire to avoid
// startup delay.
type ExportPool struct {
	size    int
	factory func() *Service

	sem      chan *Service
	mu       sync.Mutex
	services []*Service
	created  int
	closed   bool
}

// NewExportPool creates a pool with capacity for n Service instances built
// by factory. Services are created lazily when acquired.
func NewExportPool(n int, factory func() *Service) *ExportPool {
	if n < 1 {
		n = 1
	}
	return &ExportPool{
		size:    n,
		factory: factory,
		sem:     make(chan *Service, n),
	}
}

// Acquire returns a Service from the pool, creating one lazily while
// capacity remains. Blocks when all services are in use.
func (p *ExportPool) Acquire() (*Service, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		svc := p.factory()
		p.services = append(p.services, svc)
		p.mu.Unlock()
		return svc, nil
	}
	p.mu.Unlock()

	svc, ok := <-p.sem
	if !ok {
		return nil, ErrPoolClosed
	}
	return svc, nil
}

// Release returns a Service to the pool. Releasing into a closed pool
// closes the service instead.
func (p *ExportPool) Release(svc *Service) {
	if svc == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = svc.Close()
		return
	}
	// Never blocks: the channel has capacity for every created service.
	p.sem <- svc
}

// Size reports the pool capacity.
func (p *ExportPool) Size() int {
	return p.size
}

// Close shuts down every created Service and rejects further acquires.
// Returns the first close error encountered.
func (p *ExportPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	services := p.services
	// Release holds the same lock while sending, so closing here cannot
	// race an in-flight send.
	close(p.sem)
	p.mu.Unlock()

	// Drain idle services; they are closed with the rest below.
	for range p.sem {
	}

	var firstErr error
	for _, svc := range services {
		if err := svc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
