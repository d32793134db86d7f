package api

import (
	"imgnote/adapters/sse"
	"imgnote/models"
)

// localPublisher hands events straight to the connections of this process; it is
// used when no redis stream is configured.
type localPublisher struct {
	manager *sse.ConnectionManager[models.ImageEvent]
}

func (p localPublisher) Publish(event models.ImageEvent) error {
	return p.manager.Publish(event.ImageID.String(), event)
}
