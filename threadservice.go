package usp

import "sync"

const (
	// DefaultWorkerCount is the number of workers a ThreadService
	// starts when Workers is left zero.
	DefaultWorkerCount = 2

	// DefaultTaskQueueSize bounds the shared task queue of a
	// ThreadService.
	DefaultTaskQueueSize = 1024
)

// ThreadService is the execution service that drives all I/O and
// callback delivery for the connections attached to it. It must be
// initialized before any connection that uses it is created and must
// outlive those connections until their termination completes.
//
// Work for a single connection is serialized through a strand; work
// for different connections may run in parallel across the workers.
type ThreadService struct {
	// Workers overrides the worker count when set before Init.
	Workers int

	// QueueSize overrides the task queue capacity when set before Init.
	QueueSize int

	mu      sync.Mutex
	tasks   chan func()
	quit    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewThreadService creates an uninitialized thread service.
func NewThreadService() *ThreadService {
	return &ThreadService{}
}

// Init starts the worker pool. Calling Init on a running service is a
// no-op; a terminated service cannot be restarted.
func (s *ThreadService) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.quit != nil {
		return ErrServiceTerminated
	}

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	queueSize := s.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultTaskQueueSize
	}

	s.tasks = make(chan func(), queueSize)
	s.quit = make(chan struct{})
	s.running = true

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return nil
}

// Term stops the service in two phases: it stops accepting new work,
// then drains already queued work best-effort and joins the workers.
// Term returns after the join completes.
func (s *ThreadService) Term() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.quit)
	s.mu.Unlock()

	s.wg.Wait()
}

// Post enqueues a work item for execution. It fails once Term has been
// called or before Init.
func (s *ThreadService) Post(task func()) error {
	s.mu.Lock()
	if s.tasks == nil {
		s.mu.Unlock()
		return ErrServiceNotInitialized
	}
	if !s.running {
		s.mu.Unlock()
		return ErrServiceTerminated
	}
	tasks, quit := s.tasks, s.quit
	s.mu.Unlock()

	select {
	case tasks <- task:
		return nil
	case <-quit:
		return ErrServiceTerminated
	}
}

func (s *ThreadService) worker() {
	defer s.wg.Done()
	for {
		select {
		case task := <-s.tasks:
			s.run(task)
		case <-s.quit:
			// Drain what is already queued, then exit.
			for {
				select {
				case task := <-s.tasks:
					s.run(task)
				default:
					return
				}
			}
		}
	}
}

// run isolates one work item: a panicking task (for example a faulty
// consumer callback) must not kill the worker or affect work queued
// for other connections.
func (s *ThreadService) run(task func()) {
	defer func() {
		recover()
	}()
	task()
}

// strand serializes work for a single connection on top of the shared
// worker pool: tasks posted to one strand run in FIFO order and never
// concurrently, while separate strands interleave freely.
type strand struct {
	svc *ThreadService

	mu        sync.Mutex
	queue     []func()
	scheduled bool
}

func newStrand(svc *ThreadService) *strand {
	return &strand{svc: svc}
}

func (st *strand) post(task func()) error {
	st.mu.Lock()
	st.queue = append(st.queue, task)
	if st.scheduled {
		st.mu.Unlock()
		return nil
	}
	st.scheduled = true
	st.mu.Unlock()

	if err := st.svc.Post(st.drain); err != nil {
		st.mu.Lock()
		st.scheduled = false
		st.queue = nil
		st.mu.Unlock()
		return err
	}
	return nil
}

func (st *strand) drain() {
	for {
		st.mu.Lock()
		if len(st.queue) == 0 {
			st.scheduled = false
			st.mu.Unlock()
			return
		}
		task := st.queue[0]
		st.queue = st.queue[1:]
		st.mu.Unlock()

		st.run(task)
	}
}

// run keeps the strand draining even when a task panics; without it a
// fault in one task would strand the queued work behind it.
func (st *strand) run(task func()) {
	defer func() {
		recover()
	}()
	task()
}
