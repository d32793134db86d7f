package sse

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrManagerClosed = errors.New("connection manager is closed")

type managerOptions[T any] struct {
	logger     *slog.Logger
	subscriber ISubscriber[PublishRequest[T]]
	bufferSize int
}

type ManagerOption[T any] func(*managerOptions[T])

func WithLogger[T any](logger *slog.Logger) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.logger = logger
	}
}

// WithSubscriber makes the manager broadcast every request read from s, so that
// messages published on another node reach local connections.
func WithSubscriber[T any](s ISubscriber[PublishRequest[T]]) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.subscriber = s
	}
}

// WithBufferSize sets the per-connection buffer.
func WithBufferSize[T any](size int) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.bufferSize = size
	}
}

// ConnectionManager keeps the channels of all live SSE connections, keyed by name.
type ConnectionManager[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu       sync.RWMutex
	wg       sync.WaitGroup
	active   bool
	started  bool
	channels map[string]*Channel[T]
	options  managerOptions[T]
}

func NewConnectionManager[T any](opts ...ManagerOption[T]) *ConnectionManager[T] {
	options := managerOptions[T]{
		logger:     slog.Default(),
		bufferSize: 16,
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectionManager[T]{
		ctx:      ctx,
		cancel:   cancel,
		logger:   options.logger.With(slog.String("caller", "ConnectionManager")),
		active:   true,
		channels: make(map[string]*Channel[T]),
		options:  options,
	}
}

func (cm *ConnectionManager[T]) Start() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if !cm.active || cm.started || cm.options.subscriber == nil {
		return
	}
	cm.started = true
	source := cm.options.subscriber.Subscribe()

	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		for {
			select {
			case <-cm.ctx.Done():
				return
			case req, ok := <-source:
				if !ok {
					cm.logger.Warn("Subscriber closed")
					return
				}
				cm.broadcast(req.Channel, req.Message)
			}
		}
	}()
}

func (cm *ConnectionManager[T]) Done() {
	cm.mu.Lock()
	if !cm.active {
		cm.mu.Unlock()
		return
	}
	cm.active = false
	cm.cancel()
	cm.mu.Unlock()

	cm.wg.Wait()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, channel := range cm.channels {
		channel.UnsubscribeAll()
	}
	clear(cm.channels)
}

func (cm *ConnectionManager[T]) Subscribe(channelName string) (<-chan T, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if !cm.active {
		return nil, ErrManagerClosed
	}
	c, ok := cm.channels[channelName]
	if !ok {
		c = NewChannel[T](cm.options.bufferSize)
		cm.channels[channelName] = c
	}
	return c.Subscribe(), nil
}

// Publish delivers data to the local connections of channelName.
func (cm *ConnectionManager[T]) Publish(channelName string, data T) error {
	cm.mu.RLock()
	active := cm.active
	cm.mu.RUnlock()
	if !active {
		return ErrManagerClosed
	}
	cm.broadcast(channelName, data)
	return nil
}

func (cm *ConnectionManager[T]) Unsubscribe(channelName string, ch <-chan T) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	c, ok := cm.channels[channelName]
	if !ok {
		return
	}
	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(cm.channels, channelName)
	}
}

func (cm *ConnectionManager[T]) broadcast(channelName string, data T) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c, ok := cm.channels[channelName]
	if !ok {
		return
	}
	if dropped := c.Broadcast(data); dropped > 0 {
		cm.logger.Warn("Drop message for slow subscribers", slog.String("channel", channelName), slog.Int("dropped", dropped))
	}
}
