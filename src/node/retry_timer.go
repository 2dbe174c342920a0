package node

import "time"

type timerFactory func(time.Duration) <-chan time.Time

// RetryTimer schedules the fixed-delay lookup retries. The event loop resets
// it after a failed query and receives a tick when the next attempt is due.
type RetryTimer struct {
	timerFactory timerFactory
	tickCh       chan struct{}      //sends a signal to the event loop
	resetCh      chan time.Duration //receives instruction to re-arm the timer
	stopCh       chan struct{}      //receives instruction to disarm the timer
	shutdownCh   chan struct{}      //receives instruction to exit Run loop
	set          bool
}

// NewTimer ...
func NewTimer(timerFactory timerFactory) *RetryTimer {
	return &RetryTimer{
		timerFactory: timerFactory,
		tickCh:       make(chan struct{}),
		resetCh:      make(chan time.Duration),
		stopCh:       make(chan struct{}),
		shutdownCh:   make(chan struct{}),
	}
}

// NewRetryTimer returns a timer armed on demand with a fixed delay.
func NewRetryTimer() *RetryTimer {
	fixedTimeout := func(d time.Duration) <-chan time.Time {
		if d == 0 {
			return nil
		}
		return time.After(d)
	}
	return NewTimer(fixedTimeout)
}

// Run processes arm/disarm instructions until Shutdown. It starts disarmed
// when init is zero.
func (r *RetryTimer) Run(init time.Duration) {
	setTimer := func(t time.Duration) <-chan time.Time {
		r.set = true
		return r.timerFactory(t)
	}

	timer := setTimer(init)
	for {
		select {
		case <-timer:
			select {
			case r.tickCh <- struct{}{}:
			case <-r.shutdownCh:
				return
			}
			r.set = false
		case t := <-r.resetCh:
			timer = setTimer(t)
		case <-r.stopCh:
			timer = nil
			r.set = false
		case <-r.shutdownCh:
			r.set = false
			return
		}
	}
}

// Reset arms the timer to fire after d.
func (r *RetryTimer) Reset(d time.Duration) {
	select {
	case r.resetCh <- d:
	case <-r.shutdownCh:
	}
}

// Stop disarms the timer without shutting it down.
func (r *RetryTimer) Stop() {
	select {
	case r.stopCh <- struct{}{}:
	case <-r.shutdownCh:
	}
}

// Shutdown exits the Run loop.
func (r *RetryTimer) Shutdown() {
	close(r.shutdownCh)
}
