package sse

// PublishRequest addresses a message to one named channel.
type PublishRequest[T any] struct {
	Channel string `json:"channel" msgpack:"channel"`
	Message T      `json:"message" msgpack:"message"`
}

// ISubscriber is an external source of publish requests, e.g. a redis stream consumer.
type ISubscriber[T any] interface {
	Subscribe() <-chan T
}

type IChannel[T any] interface {
	Subscribe() <-chan T
	Unsubscribe(ch <-chan T)
	UnsubscribeAll()
	// Broadcast hands message to every subscriber without blocking and reports
	// how many subscribers were skipped because their buffer was full.
	Broadcast(message T) int
	IsIdle() bool
}

type IConnectionManager[T any] interface {
	// Start begins forwarding messages from the subscriber, if one was configured.
	Start()
	// Done closes every subscription; later calls to Subscribe and Publish fail.
	Done()
	Subscribe(channelName string) (<-chan T, error)
	Publish(channelName string, data T) error
	Unsubscribe(channelName string, ch <-chan T)
}
