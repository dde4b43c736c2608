package membership

import (
	"context"
	"time"

	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/gwutils"
)

// Handler receives events from a feed
type Handler func(ev Event)

// Feed delivers membership events at least once
type Feed interface {
	// Run delivers events to handler until ctx is done
	Run(ctx context.Context, handler Handler) error
}

// StaticFeed replays a fixed list of events
type StaticFeed []Event

// Run delivers all events and returns
func (f StaticFeed) Run(ctx context.Context, handler Handler) error {
	for _, ev := range f {
		if err := ctx.Err(); err != nil {
			return err
		}
		handler(ev)
	}
	return nil
}

func logKey(channel string) string {
	return channel + ".log"
}

func seqKey(channel string) string {
	return channel + ".seq"
}

// RedisFeed subscribes membership events from a redis channel
//
// The event log kept by RedisPublisher is replayed on every (re)connect, so events
// published while disconnected are not lost. Replayed events are deduplicated by Seq.
type RedisFeed struct {
	url     string
	channel string
	dial    func() (redis.Conn, error)
}

// NewRedisFeed creates a RedisFeed
func NewRedisFeed(url string, channel string) *RedisFeed {
	return &RedisFeed{
		url:     url,
		channel: channel,
		dial: func() (redis.Conn, error) {
			return redis.DialURL(url)
		},
	}
}

// Run subscribes and delivers events until ctx is done, reconnecting on errors
func (f *RedisFeed) Run(ctx context.Context, handler Handler) error {
	for ctx.Err() == nil {
		var err error
		gwutils.RunPanicless(func() {
			err = f.runOnce(ctx, handler)
		})
		if ctx.Err() != nil {
			break
		}
		gwlog.Errorf("membership feed %s@%s disconnected: %v, retry in %s", f.channel, f.url, err, consts.MEMBERSHIP_FEED_RETRY_INTERVAL)
		select {
		case <-ctx.Done():
		case <-time.After(consts.MEMBERSHIP_FEED_RETRY_INTERVAL):
		}
	}
	return ctx.Err()
}

func (f *RedisFeed) runOnce(ctx context.Context, handler Handler) error {
	subConn, err := f.dial()
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	psc := redis.PubSubConn{Conn: subConn}
	defer psc.Close()

	if err := psc.Subscribe(f.channel); err != nil {
		return errors.Wrap(err, "subscribe")
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			psc.Unsubscribe()
			psc.Close()
		case <-stop:
		}
	}()

	for {
		switch v := psc.Receive().(type) {
		case redis.Message:
			f.deliver(v.Data, handler)
		case redis.Subscription:
			if v.Kind == "subscribe" {
				// replay after subscribed so that no event is missed in between
				if err := f.replay(handler); err != nil {
					return err
				}
			} else if v.Count == 0 {
				return nil
			}
		case error:
			return v
		}
	}
}

func (f *RedisFeed) replay(handler Handler) error {
	c, err := f.dial()
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	defer c.Close()

	items, err := redis.ByteSlices(c.Do("LRANGE", logKey(f.channel), 0, -1))
	if err != nil {
		return errors.Wrap(err, "replay")
	}
	gwlog.Infof("membership feed %s: replaying %d events", f.channel, len(items))
	for _, data := range items {
		f.deliver(data, handler)
	}
	return nil
}

func (f *RedisFeed) deliver(data []byte, handler Handler) {
	ev, err := DecodeEvent(data)
	if err != nil {
		gwlog.Errorf("membership feed %s: dropped event: %s", f.channel, err)
		return
	}
	handler(ev)
}

// RedisPublisher publishes membership events to a redis channel
type RedisPublisher struct {
	channel string
	dial    func() (redis.Conn, error)
}

// NewRedisPublisher creates a RedisPublisher
func NewRedisPublisher(url string, channel string) *RedisPublisher {
	return &RedisPublisher{
		channel: channel,
		dial: func() (redis.Conn, error) {
			return redis.DialURL(url)
		},
	}
}

// Publish assigns the next Seq to the event, appends it to the event log and publishes it
func (p *RedisPublisher) Publish(ev Event) (Event, error) {
	if err := ev.Validate(); err != nil {
		return ev, err
	}

	c, err := p.dial()
	if err != nil {
		return ev, errors.Wrap(err, "dial")
	}
	defer c.Close()

	seq, err := redis.Uint64(c.Do("INCR", seqKey(p.channel)))
	if err != nil {
		return ev, errors.Wrap(err, "incr seq")
	}
	ev.Seq = seq

	data, err := ev.Encode()
	if err != nil {
		return ev, err
	}
	if _, err := c.Do("RPUSH", logKey(p.channel), data); err != nil {
		return ev, errors.Wrap(err, "append log")
	}
	if _, err := c.Do("PUBLISH", p.channel, data); err != nil {
		return ev, errors.Wrap(err, "publish")
	}
	gwlog.Infof("membership: published %s", ev)
	return ev, nil
}
