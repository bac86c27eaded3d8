package domain

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spaolacci/murmur3"
)

// Upload is a single file accepted from a client, valid for the duration of one store call.
type Upload struct {
	OriginalName string
	ContentType  string
	// Size is the client-declared byte length.
	Size int64
	Body io.Reader
}

// Descriptor is the metadata returned for a stored or looked-up file. It never carries content.
type Descriptor struct {
	FileName     string     `json:"filename"`
	OriginalName string     `json:"originalname,omitempty"`
	Size         int64      `json:"size"`
	MimeType     string     `json:"mimetype,omitempty"`
	Extension    string     `json:"extension,omitempty"`
	Category     string     `json:"category"`
	URL          string     `json:"url"`
	ModifiedAt   *time.Time `json:"modified_at,omitempty"`
}

// ETag returns a weak validator derived from name, size and modification time.
func (d *Descriptor) ETag() string {
	var mod int64
	if d.ModifiedAt != nil {
		mod = d.ModifiedAt.UnixNano()
	}
	key := d.Category + "/" + d.FileName + ":" + strconv.FormatInt(d.Size, 10) + ":" + strconv.FormatInt(mod, 10)
	return fmt.Sprintf("W/\"%016x\"", murmur3.Sum64([]byte(key)))
}
