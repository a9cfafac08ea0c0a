package engine

import (
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/unkn0wn-root/reqrun/internal/model"
)

// timingCollector captures phase boundaries for one hop via httptrace. The
// transport may fire callbacks on different goroutines, hence the lock.
type timingCollector struct {
	mu sync.Mutex

	start     time.Time
	dnsStart  time.Time
	dnsDone   time.Time
	connStart time.Time
	connDone  time.Time
	tlsStart  time.Time
	tlsDone   time.Time
	wroteDone time.Time
	firstByte time.Time
}

func newTimingCollector() *timingCollector {
	return &timingCollector{start: time.Now()}
}

func (t *timingCollector) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			t.stamp(&t.dnsStart)
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			t.stamp(&t.dnsDone)
		},
		ConnectStart: func(string, string) {
			t.stamp(&t.connStart)
		},
		ConnectDone: func(string, string, error) {
			t.stamp(&t.connDone)
		},
		TLSHandshakeStart: func() {
			t.stamp(&t.tlsStart)
		},
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			t.stamp(&t.tlsDone)
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			t.stamp(&t.wroteDone)
		},
		GotFirstResponseByte: func() {
			t.stamp(&t.firstByte)
		},
	}
}

func (t *timingCollector) stamp(field *time.Time) {
	t.mu.Lock()
	if field.IsZero() {
		*field = time.Now()
	}
	t.mu.Unlock()
}

// timings folds the stamps into the HAR-style breakdown. Phases that never
// ran (reused connection, plain HTTP) report -1.
func (t *timingCollector) timings(end time.Time) *model.Timings {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := &model.Timings{Blocked: -1, DNS: -1, Connect: -1, Send: -1, Wait: -1, Receive: -1, SSL: -1}
	out.Blocked = span(t.start, firstOf(t.dnsStart, t.connStart, t.wroteDone))
	out.DNS = span(t.dnsStart, t.dnsDone)
	out.Connect = span(t.connStart, t.connDone)
	out.SSL = span(t.tlsStart, t.tlsDone)
	out.Send = span(firstOf(t.connDone, t.start), t.wroteDone)
	out.Wait = span(t.wroteDone, t.firstByte)
	out.Receive = span(t.firstByte, end)
	return out
}

func span(from, to time.Time) int64 {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return -1
	}
	return to.Sub(from).Milliseconds()
}

func firstOf(candidates ...time.Time) time.Time {
	for _, c := range candidates {
		if !c.IsZero() {
			return c
		}
	}
	return time.Time{}
}
