// Package arqmetrics exposes per-session arq counters as Prometheus
// metrics. The control block already maintains its own cumulative Stats
// as it runs, so Observe just mirrors those totals into gauges on each
// poll rather than reconstructing per-interval counter deltas.
package arqmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	arq "github.com/nullship/arqnet"
)

// Collector holds the registered vectors. Create one per process with
// NewCollector and call Observe once per session per scrape tick.
type Collector struct {
	outputSegs  *prometheus.GaugeVec
	repeatSegs  *prometheus.GaugeVec
	lostSegs    *prometheus.GaugeVec
	fastRetrans *prometheus.GaugeVec
	retransSegs *prometheus.GaugeVec
	cwnd        *prometheus.GaugeVec
	rto         *prometheus.GaugeVec
	sndUna      *prometheus.GaugeVec
	inputErrors *prometheus.CounterVec
}

// NewCollector builds and registers the vectors against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		outputSegs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arq_output_segments_total",
			Help: "Lifetime segments handed to the egress sink.",
		}, []string{"conv"}),
		repeatSegs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arq_repeat_segments_total",
			Help: "Lifetime duplicate segments discarded on input.",
		}, []string{"conv"}),
		lostSegs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arq_lost_segments_total",
			Help: "Lifetime segments retransmitted after a timeout.",
		}, []string{"conv"}),
		fastRetrans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arq_fast_retransmit_segments_total",
			Help: "Lifetime segments retransmitted by the fast-retransmit path.",
		}, []string{"conv"}),
		retransSegs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arq_retrans_segments_total",
			Help: "Lifetime retransmitted segments of any cause.",
		}, []string{"conv"}),
		cwnd: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arq_cwnd",
			Help: "Current congestion window in segments.",
		}, []string{"conv"}),
		rto: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arq_rto_milliseconds",
			Help: "Current retransmission timeout estimate.",
		}, []string{"conv"}),
		sndUna: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arq_snd_una",
			Help: "Oldest unacknowledged sequence number.",
		}, []string{"conv"}),
		inputErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arq_input_errors_total",
			Help: "Input() failures, split by error kind.",
		}, []string{"conv", "kind"}),
	}
	reg.MustRegister(c.outputSegs, c.repeatSegs, c.lostSegs, c.fastRetrans,
		c.retransSegs, c.cwnd, c.rto, c.sndUna, c.inputErrors)
	return c
}

// session is the subset of *session.Session's read-only accessors this
// package needs, kept narrow to avoid importing the session package.
type session interface {
	Conv() uint32
	Stats() arq.Stats
}

// controlLike exposes the congestion/RTO accessors Observe also wants.
// *arq.Control satisfies it directly; *session.Session does too, since it
// forwards these through its own mutex-guarded methods.
type controlLike interface {
	session
	Cwnd() uint32
	RTO() uint32
	SndUna() uint32
}

// Observe mirrors one session's current counters into the registered
// gauges.
func (c *Collector) Observe(s controlLike) {
	label := prometheus.Labels{"conv": convLabel(s.Conv())}
	stats := s.Stats()

	c.outputSegs.With(label).Set(float64(stats.OutputSegs))
	c.repeatSegs.With(label).Set(float64(stats.RepeatSegs))
	c.lostSegs.With(label).Set(float64(stats.LostSegs))
	c.fastRetrans.With(label).Set(float64(stats.FastRetransSegs))
	c.retransSegs.With(label).Set(float64(stats.RetransSegs))
	c.cwnd.With(label).Set(float64(s.Cwnd()))
	c.rto.With(label).Set(float64(s.RTO()))
	c.sndUna.With(label).Set(float64(s.SndUna()))
}

// InputError records one Input() failure by kind (e.g. "malformed",
// "foreign-conversation").
func (c *Collector) InputError(conv uint32, kind string) {
	c.inputErrors.With(prometheus.Labels{"conv": convLabel(conv), "kind": kind}).Inc()
}

// Forget drops every series for conv, called when a session is evicted so
// stale labels don't linger forever.
func (c *Collector) Forget(conv uint32) {
	label := prometheus.Labels{"conv": convLabel(conv)}
	c.outputSegs.Delete(label)
	c.repeatSegs.Delete(label)
	c.lostSegs.Delete(label)
	c.fastRetrans.Delete(label)
	c.retransSegs.Delete(label)
	c.cwnd.Delete(label)
	c.rto.Delete(label)
	c.sndUna.Delete(label)
}

func convLabel(conv uint32) string {
	return strconv.FormatUint(uint64(conv), 10)
}
