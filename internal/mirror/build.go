// internal/mirror/build.go
package mirror

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	cfg "github.com/tamzrod/drone-streamer/internal/config"
	mmodbus "github.com/tamzrod/drone-streamer/internal/mirror/modbus"
	mmqtt "github.com/tamzrod/drone-streamer/internal/mirror/mqtt"
)

// Build connects every configured sink and returns a hub over them plus a
// closer for the underlying connections. Sinks are opt-in: an empty
// endpoint or broker leaves that sink out.
func Build(c cfg.MirrorConfig, log logrus.FieldLogger, fails FailureRecorder) (*Hub, func() error, error) {
	var (
		sinks   []Sink
		closers []func() error
	)

	closeAll := func() error {
		var errs []error
		for _, fn := range closers {
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	if c.Modbus.Endpoint != "" {
		cli, err := mmodbus.NewEndpointClient(mmodbus.Config{
			Endpoint: c.Modbus.Endpoint,
			Timeout:  time.Duration(c.Modbus.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, cli.Close)

		w, err := NewBlockWriter(BlockPlan{
			Endpoint:   c.Modbus.Endpoint,
			UnitID:     c.Modbus.UnitID,
			BaseSlot:   c.Modbus.BaseSlot,
			DeviceName: c.DeviceName,
		}, cli)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, w)
	}

	if c.MQTT.Broker != "" {
		p, err := mmqtt.New(mmqtt.Config{
			Broker:   c.MQTT.Broker,
			ClientID: c.MQTT.ClientID,
			Topic:    c.MQTT.Topic,
			QoS:      c.MQTT.QoS,
			Retained: c.MQTT.Retained,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, p.Close)
		sinks = append(sinks, p)
	}

	for _, s := range sinks {
		log.WithField("sink", s.Name()).Info("status mirror enabled")
	}

	return NewHub(sinks, log, fails), closeAll, nil
}
