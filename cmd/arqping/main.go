// Command arqping dials a remote arqecho (or any arq listener) and sends
// one message per interval, printing the echoed reply's round-trip time.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

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
	dial := flag.String("dial", "127.0.0.1:9000", "remote address to ping")
	count := flag.Int("count", 5, "number of pings to send, 0 for unlimited")
	flag.Parse()

	conf, err := config.Load(configFile)
	if err != nil {
		glog.Warningf("config: %v, using built-in defaults", err)
		conf = &config.Repr{}
	}
	if conf.Dial != "" {
		*dial = conf.Dial
	}

	remote, err := net.ResolveUDPAddr("udp", *dial)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", *dial)
	}

	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return errors.WithStack(err)
	}

	idleTimeout := time.Duration(conf.Idle.TimeoutSeconds) * time.Second
	registry := session.NewDialRegistry(conn, idleTimeout)
	conv := session.NewConv()
	sess := registry.Dial(conv, remote)
	sess.Configure(conf.Protocol.MTU, conf.Protocol.Interval,
		conf.Protocol.NoDelay, conf.Protocol.Resend, conf.Protocol.NoCwnd,
		conf.Protocol.SndWnd, conf.Protocol.RcvWnd, conf.Protocol.DeadLink,
		conf.Protocol.Stream, conf.Protocol.TTL, conf.Protocol.TOS)

	started := time.Now()
	nowMs := func() uint32 { return uint32(time.Since(started).Milliseconds()) }

	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			registry.UpdateAll(nowMs())
		}
	}()

	go func() {
		buf := make([]byte, 64*1024)
		for {
			n, from, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			if _, err := registry.Dispatch(buf[:n], from); err != nil {
				glog.Warningf("dispatch from %s: %v", from, err)
			}
		}
	}()

	recvBuf := make([]byte, 64*1024)
	for i := 0; *count == 0 || i < *count; i++ {
		sent := time.Now()
		payload := fmt.Sprintf("ping %d", i)
		if _, err := sess.Send([]byte(payload)); err != nil {
			return errors.Wrapf(err, "send ping %d", i)
		}

		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			n, err := sess.Recv(recvBuf)
			if err == nil {
				fmt.Printf("seq=%d rtt=%s reply=%q\n", i, time.Since(sent), recvBuf[:n])
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(1 * time.Second)
	}
	return nil
}
