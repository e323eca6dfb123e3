package models

import "time"

// Resource kinds. Used to parameterize the guard chain, the rating ledger and
// the comment table across content types.
const (
	KindComic = "comic"
	KindStory = "story"
	KindImage = "image"
)

// Resource is implemented by every owned content document the guard chain can
// resolve. Comics and stories move through the publish lifecycle; images have
// no publication state and report a nil PublicationTime.
type Resource interface {
	ResourceID() uint
	ResourceKind() string
	OwnerID() uint
	PublicationTime() *time.Time
}
