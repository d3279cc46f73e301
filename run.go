package kwik

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/johanvos/kwik/internal/qerr"
)

// Run drives this connection's background timers for as long as ctx is
// live: loss-detection/PTO re-arming and the idle-timeout watchdog, each on
// its own goroutine under a shared errgroup.Group so that either one
// returning (ctx canceled, the connection closing, the idle timeout firing)
// tears the other down too. The group is local to Run; a Sender's own flush
// loop, if it has one, is not part of it.
func (c *Connection) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.runLossTimer(ctx) })
	g.Go(func() error { return c.runIdleTimeoutWatchdog(ctx) })
	return g.Wait()
}

func (c *Connection) runLossTimer(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.state == StateClosed {
			c.mu.Unlock()
			return nil
		}
		lossTime := c.sentPackets.LossTime()
		wait := c.sentPackets.ProbeTimeout()
		if !lossTime.IsZero() {
			wait = time.Until(lossTime)
		}
		c.mu.Unlock()
		if wait <= 0 {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			c.mu.Lock()
			if c.state == StateClosed {
				c.mu.Unlock()
				return nil
			}
			c.sentPackets.OnLossDetectionTimeout(time.Now())
			c.tracer.UpdatedCongestionState(c.sentPackets.CongestionWindow(), 0)
			c.mu.Unlock()
		}
	}
}

func (c *Connection) runIdleTimeoutWatchdog(ctx context.Context) error {
	c.mu.Lock()
	timeout := c.cfg.MaxIdleTimeout
	c.mu.Unlock()
	if timeout <= 0 {
		<-ctx.Done()
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			c.mu.Lock()
			idleFor := time.Since(c.lastActivity)
			closed := c.state == StateClosed
			c.mu.Unlock()
			if closed {
				return nil
			}
			if idleFor >= timeout {
				c.closeIdle()
				return &qerr.IdleTimeoutError{}
			}
			timer.Reset(timeout - idleFor)
		}
	}
}

// closeIdle implements RFC 9000 §10.1: an idle timeout ends the connection
// silently, without sending CONNECTION_CLOSE.
func (c *Connection) closeIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.closeErr = &qerr.IdleTimeoutError{}
	c.state = StateClosed
	c.tracer.ClosedConnection(c.closeErr)
}
