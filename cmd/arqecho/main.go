// Command arqecho listens on a UDP socket and echoes back every message it
// receives on each conversation, demultiplexing inbound datagrams across
// conversations with a session.Registry.
package main

import (
	"flag"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	arq "github.com/nullship/arqnet"
	"github.com/nullship/arqnet/arqmetrics"
	"github.com/nullship/arqnet/config"
	"github.com/nullship/arqnet/session"
)

func main() {
	if err := _main(); err != nil {
		defer os.Exit(1)

		var st errors.StackTrace
		type stackTracer interface {
			StackTrace() errors.StackTrace
		}
		if e, ok := err.(stackTracer); ok {
			st = e.StackTrace()
		}
		glog.Errorf("%s%+v\n", err, st)
	}
}

func _main() error {
	var configFile string
	flag.StringVar(&configFile, "c", "./config.toml", "path of config file")
	listen := flag.String("listen", ":9000", "listen address")
	metricsListen := flag.String("metrics-listen", "", "prometheus /metrics listen address, empty disables it")
	flag.Parse()

	conf, err := config.Load(configFile)
	if err != nil {
		glog.Warningf("config: %v, using built-in defaults", err)
		conf = &config.Repr{}
	}
	if conf.Listen != "" {
		*listen = conf.Listen
	}

	conn, err := net.ListenPacket("udp", *listen)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", *listen)
	}
	glog.Infof("arqecho listening on %s", conn.LocalAddr())

	idleTimeout := time.Duration(conf.Idle.TimeoutSeconds) * time.Second
	registry := session.NewRegistry(conn, idleTimeout)

	collector := startMetrics(*metricsListen)
	if collector != nil {
		registry.OnEvict(collector.Forget)
	}

	started := time.Now()
	nowMs := func() uint32 { return uint32(time.Since(started).Milliseconds()) }

	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			registry.UpdateAll(nowMs())
			if collector != nil {
				for _, s := range registry.Sessions() {
					collector.Observe(s)
				}
			}
		}
	}()

	buf := make([]byte, 64*1024)
	msg := make([]byte, 64*1024)
	for {
		n, remote, err := conn.ReadFrom(buf)
		if err != nil {
			return errors.WithStack(err)
		}

		s, err := registry.Dispatch(buf[:n], remote)
		if err != nil {
			glog.Warningf("dispatch from %s: %v", remote, err)
			if collector != nil {
				if conv, cerr := session.ConvOf(buf[:n]); cerr == nil {
					kind := err.Error()
					switch {
					case errors.Is(err, arq.ErrMalformedDatagram):
						kind = "malformed"
					case errors.Is(err, arq.ErrForeignConversation):
						kind = "foreign-conversation"
					}
					collector.InputError(conv, kind)
				}
			}
			continue
		}

		for {
			m, err := s.Recv(msg)
			if err != nil {
				break
			}
			if _, err := s.Send(msg[:m]); err != nil {
				glog.Warningf("echo send on conv %d: %v", s.Conv(), err)
				break
			}
		}
	}
}

func startMetrics(listen string) *arqmetrics.Collector {
	if listen == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	collector := arqmetrics.NewCollector(reg)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(listen, mux); err != nil {
			glog.Errorf("metrics listener: %v", err)
		}
	}()
	return collector
}
