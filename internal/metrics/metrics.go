package metrics

import "sync/atomic"

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

// Registry aggregates the process counters exposed on the admin endpoint.
type Registry struct {
	OrdersCreated   Counter
	OrdersApproved  Counter
	OrdersRejected  Counter
	OrdersCompleted Counter

	WebhooksReceived  Counter
	WebhooksDuplicate Counter
	WebhooksBadSig    Counter
	EmailsSent        Counter
	EmailsFailed      Counter
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"orders_created":     r.OrdersCreated.Load(),
		"orders_approved":    r.OrdersApproved.Load(),
		"orders_rejected":    r.OrdersRejected.Load(),
		"orders_completed":   r.OrdersCompleted.Load(),
		"webhooks_received":  r.WebhooksReceived.Load(),
		"webhooks_duplicate": r.WebhooksDuplicate.Load(),
		"webhooks_bad_sig":   r.WebhooksBadSig.Load(),
		"emails_sent":        r.EmailsSent.Load(),
		"emails_failed":      r.EmailsFailed.Load(),
	}
}
