// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hypebeast/go-osc/osc"

	"github.com/relabs-tech/head_tracker/internal/orientation"
)

// OSCClient is the part of *osc.Client the targets use.
type OSCClient interface {
	Send(packet osc.Packet) error
}

// NewOSCClient returns a UDP client for host:port.
func NewOSCClient(host string, port int) OSCClient {
	return osc.NewClient(host, port)
}

// SceneRotatorQuaternion is the component order the IEM SceneRotator
// expects after w: [-y, x, -z].
var SceneRotatorQuaternion = orientation.Convention{
	Name: "iem-scenerotator",
	Perm: [3]int{1, 0, 2},
	Sign: [3]float64{-1, 1, -1},
}

// SceneRotatorAngles inverts yaw and roll.
var SceneRotatorAngles = orientation.AngleConvention{Invert: [3]bool{true, false, true}}

func send(c OSCClient, addr string, args ...float64) error {
	msg := osc.NewMessage(addr)
	for _, a := range args {
		msg.Append(float32(a))
	}
	if err := c.Send(msg); err != nil {
		return fmt.Errorf("osc %s: %w", addr, err)
	}
	return nil
}

// prefix makes sure an address prefix ends with a slash.
func prefix(p string) string {
	if !strings.HasSuffix(p, "/") {
		return p + "/"
	}
	return p
}

// SceneRotator drives the IEM SceneRotator plug-in. Quaternions are sent as
// they are; YPR is sent as three separate angle messages.
type SceneRotator struct {
	client OSCClient
	addr   string
}

func NewSceneRotator(client OSCClient, addr string) *SceneRotator {
	if addr == "" {
		addr = "/SceneRotator/"
	}
	return &SceneRotator{client: client, addr: prefix(addr)}
}

func (s *SceneRotator) SendOrientation(o orientation.Orientation) error {
	switch o.Kind() {
	case orientation.KindQuaternion:
		q, _ := o.Quaternion()
		r := SceneRotatorQuaternion.Components(q)
		return send(s.client, s.addr+"quaternions", r.W, r.X, r.Y, r.Z)
	case orientation.KindYPR:
		a, _ := o.AsYPR(orientation.SequenceYPR)
		v := SceneRotatorAngles.Apply(a)
		return errors.Join(
			send(s.client, s.addr+"yaw", v[0]),
			send(s.client, s.addr+"pitch", v[1]),
			send(s.client, s.addr+"roll", v[2]),
		)
	case orientation.KindNone:
		return nil
	default:
		panic(fmt.Sprintf("output: unknown orientation kind %v", o.Kind()))
	}
}

// DirectivityShaper steers the probe of the IEM DirectivityShaper.
type DirectivityShaper struct {
	client OSCClient
	addr   string
	conv   orientation.AngleConvention
}

// NewDirectivityShaper engages the probe lock before returning.
func NewDirectivityShaper(client OSCClient, addr string, conv orientation.AngleConvention) (*DirectivityShaper, error) {
	if addr == "" {
		addr = "/DirectivityShaper/"
	}
	d := &DirectivityShaper{client: client, addr: prefix(addr), conv: conv}
	if err := send(client, d.addr+"probeLock", 1.0); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DirectivityShaper) SendOrientation(o orientation.Orientation) error {
	a, ok := o.AsYPR(orientation.SequenceYPR)
	if !ok {
		return nil
	}
	v := d.conv.Apply(a)
	return errors.Join(
		send(d.client, d.addr+"probeAzimuth", v[0]),
		send(d.client, d.addr+"probeElevation", v[1]),
		send(d.client, d.addr+"probeRoll", v[2]),
	)
}

// SPARTA drives the rotator of SPARTA AmbiBIN.
type SPARTA struct {
	client OSCClient
	conv   orientation.AngleConvention
}

func NewSPARTA(client OSCClient, conv orientation.AngleConvention) *SPARTA {
	return &SPARTA{client: client, conv: conv}
}

func (s *SPARTA) SendOrientation(o orientation.Orientation) error {
	a, ok := o.AsYPR(orientation.SequenceYPR)
	if !ok {
		return nil
	}
	v := s.conv.Apply(a)
	return send(s.client, "/ypr", v[0], v[1], v[2])
}

// TASCAR moves a TASCAR object: Euler angles in degrees on zyxeuler and the
// translation in metres on pos.
type TASCAR struct {
	client OSCClient
	addr   string
}

// NewTASCAR takes the object address, e.g. "/scene/listener".
func NewTASCAR(client OSCClient, addr string) (*TASCAR, error) {
	addr = strings.TrimSuffix(addr, "/")
	if !strings.HasPrefix(addr, "/") || len(addr) < 2 {
		return nil, fmt.Errorf("output: tascar address %q must name an object", addr)
	}
	return &TASCAR{client: client, addr: addr}, nil
}

func (t *TASCAR) SendOrientation(o orientation.Orientation) error {
	a, ok := o.AsYPR(orientation.SequenceYPR)
	if !ok {
		return nil
	}
	d := a.ToDegrees()
	return send(t.client, t.addr+"/zyxeuler", d.Yaw, d.Pitch, d.Roll)
}

func (t *TASCAR) SendPosition(p orientation.Position) error {
	return send(t.client, t.addr+"/pos", p.X, p.Y, p.Z)
}
