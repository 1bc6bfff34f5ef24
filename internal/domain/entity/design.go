package entity

import (
	"time"

	"github.com/Badsnus/qrstudio/pkg/crop"
)

// Design is one saved record of the library.
type Design struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
	Config    QRConfig  `json:"config" gorm:"serializer:json"`
	// SourceImage is the original upload, kept so the crop can be edited again.
	SourceImage []byte      `json:"sourceImage,omitempty"`
	SourceName  string      `json:"sourceName,omitempty"`
	Logo        []byte      `json:"logo,omitempty"`
	Crop        *crop.State `json:"crop,omitempty" gorm:"serializer:json"`
	Thumbnail   []byte      `json:"thumbnail,omitempty"`
}

// Clone returns a deep copy, byte slices included.
func (d *Design) Clone() *Design {
	if d == nil {
		return nil
	}
	c := *d
	c.SourceImage = cloneBytes(d.SourceImage)
	c.Logo = cloneBytes(d.Logo)
	c.Thumbnail = cloneBytes(d.Thumbnail)
	if d.Crop != nil {
		state := *d.Crop
		c.Crop = &state
	}
	return &c
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
