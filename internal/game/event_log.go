package game

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"jet-fighter/internal/config"
)

const (
	EventBufferSize = 1024 // Circular buffer size
	BatchFlushSize  = 64   // Events per batch write
)

// EventLog is a bounded, rate-limited journal of simulation events, flushed
// asynchronously as newline-delimited JSON.
type EventLog struct {
	// Circular buffer; writers are serialized by the engine lock
	buffer    [EventBufferSize]Event
	bufMu     sync.Mutex
	writeHead uint64 // atomic - producer position
	readHead  uint64 // atomic - consumer position

	// Rate limiting: one global bucket plus one per source
	globalLimiter  *rate.Limiter
	perSource      float64
	sourceLimiters sync.Map // map[string]*rate.Limiter

	flushInterval time.Duration

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	out    io.Writer
	closer io.Closer
	outMu  sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic

	log zerolog.Logger
}

// NewEventLog creates a stopped event log. Emit is a no-op until Start.
func NewEventLog(cfg config.EventLogConfig, log zerolog.Logger) *EventLog {
	perSec := cfg.MaxPerSecond
	if perSec <= 0 {
		perSec = config.DefaultEventLog().MaxPerSecond
	}
	burst := int(perSec / 10)
	if burst < 1 {
		burst = 1
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = config.DefaultEventLog().FlushInterval
	}

	return &EventLog{
		globalLimiter: rate.NewLimiter(rate.Limit(perSec), burst),
		perSource:     perSec / 2,
		flushInterval: flush,
		stopChan:      make(chan struct{}),
		log:           log,
	}
}

// Start opens filePath for append and begins the async writer.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	el.startWriter(file, file)
	return nil
}

// StartWriter begins the async writer on an arbitrary sink.
func (el *EventLog) StartWriter(w io.Writer) {
	if el.running.Load() {
		return
	}
	el.startWriter(w, nil)
}

func (el *EventLog) startWriter(w io.Writer, c io.Closer) {
	el.out = w
	el.closer = c
	el.running.Store(true)
	el.writerWg.Add(1)
	go el.writerLoop()
}

// Stop flushes pending events and closes the sink.
func (el *EventLog) Stop() {
	if !el.running.Load() {
		return
	}
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.outMu.Lock()
		if el.closer != nil {
			if err := el.closer.Close(); err != nil {
				el.log.Warn().Err(err).Msg("closing event log")
			}
		}
		el.outMu.Unlock()
	})
}

// Emit adds an event with rate limiting.
// Returns false if not running or rate limited.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}
	if event.Source != "" && !el.sourceLimiter(event.Source).Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	el.bufMu.Lock()
	head := atomic.AddUint64(&el.writeHead, 1)
	tail := atomic.LoadUint64(&el.readHead)
	// Full: drop the oldest event (rolling window)
	if head-tail > EventBufferSize {
		atomic.AddUint64(&el.readHead, 1)
		atomic.AddUint64(&el.droppedCount, 1)
	}
	event.Sequence = head
	el.buffer[head%EventBufferSize] = event
	el.bufMu.Unlock()

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple builds and emits an event in one call.
func (el *EventLog) EmitSimple(eventType EventType, ts time.Time, tickNum uint64, source string, payload interface{}) bool {
	if !el.running.Load() {
		return false
	}
	return el.Emit(NewEvent(eventType, ts, tickNum, source, payload))
}

func (el *EventLog) sourceLimiter(source string) *rate.Limiter {
	if l, ok := el.sourceLimiters.Load(source); ok {
		return l.(*rate.Limiter)
	}
	burst := int(el.perSource / 10)
	if burst < 1 {
		burst = 1
	}
	l, _ := el.sourceLimiters.LoadOrStore(source, rate.NewLimiter(rate.Limit(el.perSource), burst))
	return l.(*rate.Limiter)
}

// writerLoop batches and writes events asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(el.flushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)

	for {
		select {
		case <-el.stopChan:
			// Final flush of everything still buffered
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// collectBatch reads available events from the circular buffer
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.bufMu.Lock()
	defer el.bufMu.Unlock()

	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	for i := tail + 1; i <= head && len(batch) < BatchFlushSize; i++ {
		batch = append(batch, el.buffer[i%EventBufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&el.readHead, uint64(len(batch)))
	}
	return batch
}

// flushBatch writes events as newline-delimited JSON
func (el *EventLog) flushBatch(batch []Event) {
	el.outMu.Lock()
	defer el.outMu.Unlock()

	if el.out == nil {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		data = append(data, '\n')
		if _, err := el.out.Write(data); err != nil {
			el.log.Warn().Err(err).Msg("event log write failed")
			return
		}
	}
}

// EventLogStats is a point-in-time view of the log counters.
type EventLogStats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Pending uint64 `json:"pending"`
	Running bool   `json:"running"`
}

// Stats returns counters for monitoring
func (el *EventLog) Stats() EventLogStats {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)
	return EventLogStats{
		Total:   atomic.LoadUint64(&el.totalCount),
		Dropped: atomic.LoadUint64(&el.droppedCount),
		Pending: head - tail,
		Running: el.running.Load(),
	}
}
