package audioio

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// chunkBuffer is how many chunks a source queues before it starts dropping.
const chunkBuffer = 32

// captureFunc produces chunks until stop is closed, ctx ends, or the input is
// exhausted. emit returns false once the source is stopping.
type captureFunc func(ctx context.Context, stop <-chan struct{}, emit func(AudioChunk) bool)

// capture holds the lifecycle shared by every source: one producer goroutine
// per Start, a buffered chunk channel it owns and closes, and stats.
type capture struct {
	name   string
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	stopped  bool
	streamCh chan AudioChunk
	stopCh   chan struct{}
	done     chan struct{}

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

func (c *capture) init(name string, cfg Config, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.name = name
	c.cfg = cfg
	c.logger = logger
	c.streamCh = closedStream()
}

func closedStream() chan AudioChunk {
	ch := make(chan AudioChunk)
	close(ch)
	return ch
}

// begin launches fn on a fresh set of channels. The caller must have done any
// device setup that can fail before calling begin.
func (c *capture) begin(ctx context.Context, fn captureFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.running {
		return nil
	}

	stream := make(chan AudioChunk, chunkBuffer)
	stop := make(chan struct{})
	done := make(chan struct{})
	c.running = true
	c.stopped = false
	c.streamCh = stream
	c.stopCh = stop
	c.done = done

	emit := func(chunk AudioChunk) bool {
		select {
		case <-stop:
			return false
		default:
		}
		select {
		case stream <- chunk:
			c.chunksRead.Add(1)
			c.samplesRead.Add(int64(len(chunk.Samples)))
		default:
			c.overruns.Add(1)
			c.logger.Debug("audio source buffer full, dropping chunk", "backend", c.name)
		}
		return true
	}

	go func() {
		defer func() {
			c.mu.Lock()
			if c.stopCh == stop {
				c.running = false
			}
			c.mu.Unlock()
			close(stream)
			close(done)
		}()
		fn(ctx, stop, emit)
	}()

	c.logger.Info("audio source started", "backend", c.name, "device", c.cfg.Device)
	return nil
}

func (c *capture) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Stop halts capture and waits for the producer goroutine to exit.
func (c *capture) Stop() error {
	c.mu.Lock()
	done := c.done
	if c.stopCh != nil && !c.stopped {
		c.stopped = true
		close(c.stopCh)
	}
	wasRunning := c.running
	c.running = false
	c.mu.Unlock()

	if done != nil {
		<-done
	}
	if wasRunning {
		c.logger.Info("audio source stopped", "backend", c.name)
	}
	return nil
}

// Read reads the next audio chunk.
func (c *capture) Read(ctx context.Context) (AudioChunk, error) {
	stream := c.Stream()
	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-stream:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Stream returns the chunk channel of the current run.
func (c *capture) Stream() <-chan AudioChunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamCh
}

// Config returns the audio configuration.
func (c *capture) Config() Config {
	return c.cfg
}

// Name returns the backend name.
func (c *capture) Name() string {
	return c.name
}

// markClosed flags the source closed and reports whether it already was.
func (c *capture) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.closed
	c.closed = true
	return was
}

// Stats returns source statistics.
func (c *capture) Stats() SourceStats {
	return SourceStats{
		ChunksRead:  c.chunksRead.Load(),
		SamplesRead: c.samplesRead.Load(),
		Overruns:    c.overruns.Load(),
		Running:     c.isRunning(),
		Backend:     c.name,
	}
}
