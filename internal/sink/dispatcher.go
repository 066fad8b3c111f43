// Package sink delivers alarm alerts over MQTT and speech.
package sink

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Delivery channels recorded with failures.
const (
	ChannelPublish  = "publish"
	ChannelAnnounce = "announce"
)

// DefaultQueueSize is the number of pending deliveries a Dispatcher holds.
const DefaultQueueSize = 16

// dropBacklog is the number of dropped deliveries waiting to be recorded.
// Drops beyond it are only logged.
const dropBacklog = 64

var (
	// ErrQueueFull is recorded when a delivery is dropped because the queue is full.
	ErrQueueFull = errors.New("dispatch queue full")
	// ErrDispatcherClosed is recorded for deliveries queued after Close.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, payload string) error
}

// Announcer speaks a message.
type Announcer interface {
	Announce(ctx context.Context, message string) error
}

// FailureRecorder stores delivery failures for operators.
type FailureRecorder interface {
	RecordFailure(channel, target string, cause error) error
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Publisher Publisher
	Announcer Announcer
	Failures  FailureRecorder
	QueueSize int
	Timeout   time.Duration
}

type delivery struct {
	channel string
	target  string
	body    string
}

type drop struct {
	job delivery
	err error
}

// Dispatcher delivers alerts in the background. Publish and Announce only
// enqueue, so the caller never waits on the network, the audio device or
// the failure store. Failures are logged and recorded by the delivery
// goroutine; they are never returned to the caller. Deliveries made after
// Close are the exception and are recorded inline.
type Dispatcher struct {
	publisher Publisher
	announcer Announcer
	failures  FailureRecorder
	timeout   time.Duration

	queue  chan delivery
	drops  chan drop
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher and starts its delivery goroutine.
// A nil Publisher or Announcer disables that channel.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	size := config.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	d := &Dispatcher{
		publisher: config.Publisher,
		announcer: config.Announcer,
		failures:  config.Failures,
		timeout:   timeout,
		queue:     make(chan delivery, size),
		drops:     make(chan drop, dropBacklog),
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish queues a publish of payload to topic.
func (d *Dispatcher) Publish(topic, payload string) {
	d.enqueue(delivery{channel: ChannelPublish, target: topic, body: payload})
}

// Announce queues a spoken message.
func (d *Dispatcher) Announce(message string) {
	d.enqueue(delivery{channel: ChannelAnnounce, body: message})
}

// Close stops accepting deliveries and waits for queued ones to finish.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	return nil
}

func (d *Dispatcher) enqueue(job delivery) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.fail(job, ErrDispatcherClosed)
		return
	}

	select {
	case d.queue <- job:
	default:
		log.Printf("Alert %s failed: %v", job.channel, ErrQueueFull)
		select {
		case d.drops <- drop{job: job, err: ErrQueueFull}:
		default:
			log.Printf("Failure backlog full, %s drop not recorded", job.channel)
		}
	}
	d.mu.RUnlock()
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case job, ok := <-d.queue:
			if !ok {
				d.recordDrops()
				return
			}
			if err := d.deliver(job); err != nil {
				d.fail(job, err)
			}
		case dr := <-d.drops:
			d.record(dr.job, dr.err)
		}
	}
}

// recordDrops stores drops still waiting once the queue has closed.
func (d *Dispatcher) recordDrops() {
	for {
		select {
		case dr := <-d.drops:
			d.record(dr.job, dr.err)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(job delivery) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	switch job.channel {
	case ChannelPublish:
		if d.publisher == nil {
			return nil
		}
		return d.publisher.Publish(ctx, job.target, job.body)
	case ChannelAnnounce:
		if d.announcer == nil {
			return nil
		}
		return d.announcer.Announce(ctx, job.body)
	}
	return errors.Errorf("unknown delivery channel %q", job.channel)
}

func (d *Dispatcher) fail(job delivery, err error) {
	log.Printf("Alert %s failed: %v", job.channel, err)
	d.record(job, err)
}

func (d *Dispatcher) record(job delivery, err error) {
	if d.failures == nil {
		return
	}
	if rerr := d.failures.RecordFailure(job.channel, job.target, err); rerr != nil {
		log.Printf("Failed to record %s failure: %v", job.channel, rerr)
	}
}
