package sse_test

type Message struct {
	Data string `json:"data"`
}

type fakeSubscriber[T any] struct {
	ch chan T
}

func (f *fakeSubscriber[T]) Subscribe() <-chan T {
	return f.ch
}
