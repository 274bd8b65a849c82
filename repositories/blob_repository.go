package repositories

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"newsroom-cms/models"
)

// BlobStore persists opaque byte sequences as fixed-size chunk rows.
//
// Store consumes the reader fully inside one transaction: either the whole
// blob commits or nothing is retrievable. Open never observes an uncommitted
// write; a returned identifier is always readable.
type BlobStore interface {
	Store(ctx context.Context, r io.Reader, name, contentType string) (string, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *models.Blob, error)
	Delete(ctx context.Context, id string) error
}

type blobRepository struct {
	db        *gorm.DB
	chunkSize int
}

func NewBlobRepository(db *gorm.DB, chunkSize int) BlobStore {
	if chunkSize <= 0 {
		chunkSize = 255 * 1024
	}
	return &blobRepository{db: db, chunkSize: chunkSize}
}

func (r *blobRepository) Store(ctx context.Context, src io.Reader, name, contentType string) (string, error) {
	id := uuid.NewString()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		blob := &models.Blob{
			ID:          id,
			Name:        name,
			ContentType: contentType,
			ChunkSize:   r.chunkSize,
		}
		if err := tx.Create(blob).Error; err != nil {
			return err
		}

		buf := make([]byte, r.chunkSize)
		var size int64
		for seq := 0; ; seq++ {
			n, err := io.ReadFull(src, buf)
			if n > 0 {
				chunk := &models.BlobChunk{
					BlobID: id,
					Seq:    seq,
					Data:   append([]byte(nil), buf[:n]...),
				}
				if err := tx.Create(chunk).Error; err != nil {
					return err
				}
				size += int64(n)
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			if err != nil {
				return err
			}
		}

		return tx.Model(&models.Blob{}).Where("id = ?", id).Update("size", size).Error
	})
	if err != nil {
		// A cancelled upload rolls back with the transaction; nothing is
		// left retrievable.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", models.ErrorStorage{Err: err}
	}

	return id, nil
}

func (r *blobRepository) Open(ctx context.Context, id string) (io.ReadCloser, *models.Blob, error) {
	var blob models.Blob
	if err := r.db.WithContext(ctx).First(&blob, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.ErrorNotFound{Message: "blob not found"}
		}
		return nil, nil, models.ErrorStorage{Err: err}
	}

	return &chunkReader{ctx: ctx, db: r.db, blob: &blob}, &blob, nil
}

func (r *blobRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("blob_id = ?", id).Delete(&models.BlobChunk{}).Error; err != nil {
			return models.ErrorStorage{Err: err}
		}
		res := tx.Where("id = ?", id).Delete(&models.Blob{})
		if res.Error != nil {
			return models.ErrorStorage{Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return models.ErrorNotFound{Message: "blob not found"}
		}
		return nil
	})
}

// chunkReader streams one chunk row at a time, so delivery keeps constant
// working memory regardless of blob size.
type chunkReader struct {
	ctx  context.Context
	db   *gorm.DB
	blob *models.Blob
	seq  int
	buf  []byte
	read int64
	err  error
}

func (cr *chunkReader) Read(p []byte) (int, error) {
	if cr.err != nil {
		return 0, cr.err
	}

	if len(cr.buf) == 0 {
		if cr.read >= cr.blob.Size {
			cr.err = io.EOF
			return 0, io.EOF
		}

		var chunk models.BlobChunk
		err := cr.db.WithContext(cr.ctx).
			Where("blob_id = ? AND seq = ?", cr.blob.ID, cr.seq).
			First(&chunk).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Size says there should be more: the sequence is incomplete.
				cr.err = models.ErrorNotFound{Message: "blob chunk sequence incomplete"}
			} else {
				cr.err = models.ErrorStorage{Err: err}
			}
			return 0, cr.err
		}

		cr.buf = chunk.Data
		cr.seq++
	}

	n := copy(p, cr.buf)
	cr.buf = cr.buf[n:]
	cr.read += int64(n)
	return n, nil
}

func (cr *chunkReader) Close() error {
	cr.buf = nil
	if cr.err == nil {
		cr.err = io.EOF
	}
	return nil
}
