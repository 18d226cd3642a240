package exchange

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Default bounds for the blocking operations. The wait timeout is the
// hardening against a peer that dies without setting the finish flag;
// without it a blocked round trip would hang forever.
const (
	DefaultAttachTimeout = 10 * time.Second
	DefaultWaitTimeout   = 30 * time.Second
)

// maxWaitSlice caps a single futex sleep so waiters re-check the closed
// and finished flags periodically. Those flags cannot atomically wake a
// waiter that is just entering the futex, so the flags are only guaranteed
// to be noticed within one slice.
const maxWaitSlice = 100 * time.Millisecond

// Config identifies one channel instance and this process's role on it.
type Config struct {
	// Key is the process-wide unique channel identifier. Both sides must
	// use the same key to rendezvous.
	Key string

	// Create marks this side as the creator. The creator allocates the
	// shared region and destroys it on Close; the other side only
	// attaches and detaches. Exactly one side must create.
	Create bool

	// AttachTimeout bounds how long an attacher waits for the creator to
	// appear. Zero means DefaultAttachTimeout.
	AttachTimeout time.Duration

	// WaitTimeout bounds every blocking handshake operation. Zero means
	// DefaultWaitTimeout.
	WaitTimeout time.Duration
}

func (c Config) attachTimeout() time.Duration {
	if c.AttachTimeout <= 0 {
		return DefaultAttachTimeout
	}
	return c.AttachTimeout
}

func (c Config) waitTimeout() time.Duration {
	if c.WaitTimeout <= 0 {
		return DefaultWaitTimeout
	}
	return c.WaitTimeout
}

// endpoint holds the state shared by the two role-specific handles.
type endpoint struct {
	seg         *segment
	waitTimeout time.Duration

	localClosed atomic.Bool

	// Half-open operation markers, used to fail loudly on API misuse.
	// The endpoint is single-threaded by contract, so plain fields.
	sending   bool
	receiving bool
}

func newEndpoint(cfg Config) (*endpoint, error) {
	var seg *segment
	var err error

	if cfg.Create {
		seg, err = createSegment(cfg.Key)
	} else {
		seg, err = openSegment(cfg.Key, cfg.attachTimeout())
	}
	if err != nil {
		return nil, err
	}

	return &endpoint{
		seg:         seg,
		waitTimeout: cfg.waitTimeout(),
	}, nil
}

// Path returns the backing file of the shared region.
func (e *endpoint) Path() string {
	return e.seg.path
}

// Finished reports whether the producer has signaled end-of-run. It never
// blocks.
func (e *endpoint) Finished() bool {
	return e.seg.finished()
}

// Close releases this side of the channel. Any peer blocked in a
// handshake operation is woken and observes ErrChannelClosed. Closing the
// creator side destroys the shared region.
func (e *endpoint) Close() error {
	if !e.localClosed.CompareAndSwap(false, true) {
		return nil
	}

	return e.seg.close()
}

// waitAndClaim blocks until the direction's phase equals want, then
// atomically advances it to next, giving the caller exclusive access to
// the record slot until the matching release.
func (e *endpoint) waitAndClaim(
	op string,
	dir *directionView,
	want, next uint32,
) error {
	deadline := time.Now().Add(e.waitTimeout)

	for {
		if e.localClosed.Load() {
			return ErrChannelClosed
		}

		p := dir.loadPhase()
		if p == want {
			if !dir.casPhase(want, next) {
				// Some other process moved the phase under us. Two
				// writers or two readers are racing on one direction.
				protocolViolation(op, "concurrent phase transition")
			}
			return nil
		}

		if e.seg.closed() {
			return fmt.Errorf("%w: peer departed", ErrChannelClosed)
		}
		if e.seg.finished() {
			return fmt.Errorf("%w: simulation finished", ErrChannelClosed)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: no response within %v",
				ErrChannelClosed, e.waitTimeout)
		}
		if remaining > maxWaitSlice {
			remaining = maxWaitSlice
		}

		err := futexWaitTimeout(dir.phaseAddr(), p, remaining)
		if err != nil && err != ErrFutexTimeout {
			return err
		}
	}
}

// release advances the direction's phase without blocking and wakes the
// peer waiting for it.
func (e *endpoint) release(op string, dir *directionView, from, to uint32) {
	if !dir.casPhase(from, to) {
		protocolViolation(op, "slot phase changed outside the handshake")
	}
	futexWake(dir.phaseAddr(), 1)
}

// A Producer is the simulation-side handle. It writes Observations and
// reads Actions, one strictly alternating round at a time.
type Producer struct {
	endpoint
}

// NewProducer creates or attaches the producer side of a channel.
func NewProducer(cfg Config) (*Producer, error) {
	e, err := newEndpoint(cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{endpoint: *e}, nil
}

// SendBegin blocks until the Observation slot is idle and claims it for
// writing. The returned record is only valid until SendEnd.
func (p *Producer) SendBegin() (*Observation, error) {
	if p.sending {
		protocolViolation("SendBegin", "SendBegin without intervening SendEnd")
	}

	if err := p.waitAndClaim("SendBegin",
		p.seg.obs, slotIdle, slotWriting); err != nil {
		return nil, err
	}

	p.sending = true
	return p.seg.observation(), nil
}

// SendEnd publishes the Observation written since SendBegin and signals
// the consumer. It returns without waiting for the consumer to read.
func (p *Producer) SendEnd() error {
	if !p.sending {
		protocolViolation("SendEnd", "no matching SendBegin")
	}
	p.sending = false

	if p.localClosed.Load() {
		return ErrChannelClosed
	}

	p.release("SendEnd", p.seg.obs, slotWriting, slotWritten)
	p.seg.obs.bumpRounds()
	return nil
}

// RecvBegin blocks until the consumer has published an Action and claims
// it for reading. The returned record is only valid until RecvEnd.
func (p *Producer) RecvBegin() (*Action, error) {
	if p.receiving {
		protocolViolation("RecvBegin", "RecvBegin without intervening RecvEnd")
	}

	if err := p.waitAndClaim("RecvBegin",
		p.seg.act, slotWritten, slotReading); err != nil {
		return nil, err
	}

	p.receiving = true
	return p.seg.action(), nil
}

// RecvEnd releases the Action slot for the consumer's next round.
func (p *Producer) RecvEnd() error {
	if !p.receiving {
		protocolViolation("RecvEnd", "no matching RecvBegin")
	}
	p.receiving = false

	if p.localClosed.Load() {
		return ErrChannelClosed
	}

	p.release("RecvEnd", p.seg.act, slotReading, slotIdle)
	return nil
}

// RoundTrip performs one full round: write an Observation, block until
// the consumer answers, and return a copy of the Action. The calling
// goroutine (typically the event-handler of a discrete-event scheduler)
// does not regain control until the consumer has responded, which is what
// keeps the two processes in lock-step.
func (p *Producer) RoundTrip(populate func(*Observation)) (Action, error) {
	obs, err := p.SendBegin()
	if err != nil {
		return Action{}, err
	}
	populate(obs)
	if err := p.SendEnd(); err != nil {
		return Action{}, err
	}

	act, err := p.RecvBegin()
	if err != nil {
		return Action{}, err
	}
	result := *act
	if err := p.RecvEnd(); err != nil {
		return Action{}, err
	}

	return result, nil
}

// SetFinished raises the finish flag. It is set at most once, at
// end-of-run, and lets the consumer terminate without a further round
// trip. Waiters on either direction are woken so they observe it
// promptly.
func (p *Producer) SetFinished() {
	p.seg.setFinished()
	futexWake(p.seg.obs.phaseAddr(), 1)
	futexWake(p.seg.act.phaseAddr(), 1)
}

// A Consumer is the controller-side handle. It reads Observations and
// writes Actions, mirroring the Producer.
type Consumer struct {
	endpoint
}

// NewConsumer creates or attaches the consumer side of a channel.
func NewConsumer(cfg Config) (*Consumer, error) {
	e, err := newEndpoint(cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{endpoint: *e}, nil
}

// RecvBegin blocks until the producer has published an Observation and
// claims it for reading. The returned record is only valid until RecvEnd.
func (c *Consumer) RecvBegin() (*Observation, error) {
	if c.receiving {
		protocolViolation("RecvBegin", "RecvBegin without intervening RecvEnd")
	}

	if err := c.waitAndClaim("RecvBegin",
		c.seg.obs, slotWritten, slotReading); err != nil {
		return nil, err
	}

	c.receiving = true
	return c.seg.observation(), nil
}

// RecvEnd releases the Observation slot for the producer's next round.
func (c *Consumer) RecvEnd() error {
	if !c.receiving {
		protocolViolation("RecvEnd", "no matching RecvBegin")
	}
	c.receiving = false

	if c.localClosed.Load() {
		return ErrChannelClosed
	}

	c.release("RecvEnd", c.seg.obs, slotReading, slotIdle)
	return nil
}

// SendBegin blocks until the Action slot is idle and claims it for
// writing. The returned record is only valid until SendEnd.
func (c *Consumer) SendBegin() (*Action, error) {
	if c.sending {
		protocolViolation("SendBegin", "SendBegin without intervening SendEnd")
	}

	if err := c.waitAndClaim("SendBegin",
		c.seg.act, slotIdle, slotWriting); err != nil {
		return nil, err
	}

	c.sending = true
	return c.seg.action(), nil
}

// SendEnd publishes the Action written since SendBegin and signals the
// producer blocked in its RecvBegin.
func (c *Consumer) SendEnd() error {
	if !c.sending {
		protocolViolation("SendEnd", "no matching SendBegin")
	}
	c.sending = false

	if c.localClosed.Load() {
		return ErrChannelClosed
	}

	c.release("SendEnd", c.seg.act, slotWriting, slotWritten)
	c.seg.act.bumpRounds()
	return nil
}

// RoundsCompleted reports how many Observations have been published on
// the channel so far.
func (e *endpoint) RoundsCompleted() uint32 {
	return e.seg.obs.roundsCompleted()
}

// Attached reports whether a consumer has mapped the region.
func (e *endpoint) Attached() bool {
	return e.seg.attached()
}

// AttacherPID returns the process ID the consumer stamped into the header
// when it attached, or 0 if no consumer has attached yet.
func (e *endpoint) AttacherPID() uint32 {
	return e.seg.attacherPID()
}
