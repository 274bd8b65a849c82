package models

import "time"

// Blob is the metadata row of a stored byte sequence. The bytes themselves
// are split into BlobChunk rows of ChunkSize bytes each (the last chunk may
// be shorter), so neither write nor read ever materializes a whole blob.
type Blob struct {
	ID          string    `json:"id" gorm:"primarykey;size:36"`
	Name        string    `json:"name" gorm:"not null"`
	ContentType string    `json:"content_type" gorm:"not null"`
	Size        int64     `json:"size" gorm:"not null"`
	ChunkSize   int       `json:"chunk_size" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

type BlobChunk struct {
	BlobID string `gorm:"primaryKey;size:36"`
	Seq    int    `gorm:"primaryKey;autoIncrement:false"`
	Data   []byte `gorm:"not null"`
}
