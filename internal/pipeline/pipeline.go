package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Processor is one step of the chain. It receives an event and the
// direction it is travelling, and returns the event to hand to the next
// step. Returning a nil frame drops the event; processors that do not care
// about an event return it unchanged.
type Processor interface {
	Name() string
	Process(ctx context.Context, frame Frame, dir Direction) (Frame, error)
}

// Pipeline is an ordered sequence of processors.
type Pipeline struct {
	procs []Processor
}

// New composes processors into a pipeline in the given order.
func New(procs ...Processor) *Pipeline {
	return &Pipeline{procs: procs}
}

// Process runs a frame through every processor in order. The frame a
// processor returns is what the next processor sees.
func (p *Pipeline) Process(ctx context.Context, frame Frame, dir Direction) error {
	var err error
	for _, proc := range p.procs {
		frame, err = proc.Process(ctx, frame, dir)
		if err != nil {
			return fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
		if frame == nil {
			return nil
		}
	}
	return nil
}

// queued pairs a frame with its direction while it waits to run.
type queued struct {
	frame Frame
	dir   Direction
}

// Task feeds frames through a pipeline until an EndFrame arrives or the
// context is cancelled. Producers (the media transport, the AI service's
// receive loop) queue frames; Run is the single consumer, so processors
// never run concurrently with each other.
type Task struct {
	pipe  *Pipeline
	queue chan queued
}

// ErrQueueFull is returned when a frame is dropped because the task is not
// draining fast enough.
var ErrQueueFull = errors.New("pipeline task queue full")

// NewTask creates a task over the pipeline with a bounded frame queue.
func NewTask(pipe *Pipeline) *Task {
	return &Task{
		pipe:  pipe,
		queue: make(chan queued, 256),
	}
}

// Queue hands a frame to the task without blocking. Audio frames arrive at
// a fixed real-time rate, so dropping under backpressure is preferable to
// stalling the socket read loop.
func (t *Task) Queue(frame Frame, dir Direction) error {
	select {
	case t.queue <- queued{frame: frame, dir: dir}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run consumes queued frames until an EndFrame passes through the chain or
// ctx is cancelled.
func (t *Task) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case q := <-t.queue:
			if err := t.pipe.Process(ctx, q.frame, q.dir); err != nil {
				return err
			}
			if _, done := q.frame.(*EndFrame); done {
				slog.Debug("Pipeline task finished")
				return nil
			}
		}
	}
}
