// Package config loads the TOML tunables for an arq host process.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Repr is the on-disk shape of a config.toml. Fields absent from the file
// keep their zero value; Load fills those in after decode (applyDefaults).
type Repr struct {
	Listen  string `toml:"listen"`
	Dial    string `toml:"dial"`
	Metrics string `toml:"metrics_listen"`

	Conv struct {
		Fixed uint32 `toml:"fixed"`
	} `toml:"conv"`

	Idle struct {
		TimeoutSeconds int `toml:"timeout_seconds"`
	} `toml:"idle"`

	Protocol struct {
		MTU      uint32 `toml:"mtu"`
		Interval uint32 `toml:"interval"`
		NoDelay  int    `toml:"nodelay"`
		Resend   int    `toml:"resend"`
		NoCwnd   int    `toml:"nocwnd"`
		SndWnd   int    `toml:"snd_wnd"`
		RcvWnd   int    `toml:"rcv_wnd"`
		DeadLink uint32 `toml:"dead_link"`
		Stream   bool   `toml:"stream"`
		TTL      int    `toml:"ttl"`
		TOS      int    `toml:"tos"`
	} `toml:"protocol"`
}

// mirrors the control package's own constructor defaults. One exception in
// effect: session.Configure passes rcv_wnd through WndSize, which raises
// any value below 128 to 128, so defaultRcvWnd yields a receive window of
// 128 segments where New(conv, out) starts at 32.
const (
	defaultMTU            = 1400
	defaultInterval       = 100
	defaultSndWnd         = 32
	defaultRcvWnd         = 32
	defaultDeadLink       = 20
	defaultIdleTimeoutSec = 600
)

// Load decodes fpath and applies defaults for any tunable left unset.
func Load(fpath string) (*Repr, error) {
	var r Repr
	if _, err := toml.DecodeFile(fpath, &r); err != nil {
		return nil, errors.Wrapf(err, "config: decode %s", fpath)
	}
	r.applyDefaults()
	return &r, nil
}

func (r *Repr) applyDefaults() {
	if r.Protocol.MTU == 0 {
		r.Protocol.MTU = defaultMTU
	}
	if r.Protocol.Interval == 0 {
		r.Protocol.Interval = defaultInterval
	}
	if r.Protocol.SndWnd == 0 {
		r.Protocol.SndWnd = defaultSndWnd
	}
	if r.Protocol.RcvWnd == 0 {
		r.Protocol.RcvWnd = defaultRcvWnd
	}
	if r.Protocol.DeadLink == 0 {
		r.Protocol.DeadLink = defaultDeadLink
	}
	if r.Idle.TimeoutSeconds == 0 {
		r.Idle.TimeoutSeconds = defaultIdleTimeoutSec
	}
}
