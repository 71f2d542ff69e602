package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrNotFound: no existe objeto con esa key.
	ErrNotFound = errors.New("blob: object not found")

	// ErrPreconditionFailed: la escritura condicional no pasó
	// (overwrite deshabilitado con objeto existente, o IfMatch con etag distinto).
	ErrPreconditionFailed = errors.New("blob: precondition failed")
)

// Object describe un objeto almacenado (metadata, sin contenido).
type Object struct {
	Key        string
	URL        string
	Size       int64
	ETag       string
	UploadedAt time.Time
}

// PutOptions controla la semántica de escritura.
type PutOptions struct {
	ContentType string

	// Overwrite=false convierte el Put en create-only:
	// si la key ya existe, ErrPreconditionFailed.
	Overwrite bool

	// IfMatch, si no es vacío, exige que el etag actual del objeto
	// coincida. Si cambió (o el objeto no existe), ErrPreconditionFailed.
	IfMatch string
}

// Store es el port de object-storage: las tres primitivas que necesita
// el documento de medicaciones (put / get / list). Cualquier backend que
// las cumpla sirve; los adapters viven en internal/adapters/blob.
type Store interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) (Object, error)
	Get(ctx context.Context, key string) ([]byte, Object, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

// ComputeETag calcula un etag estable a partir del contenido.
// Lo usan los adapters que no tienen etag nativo (memory, postgres);
// S3 trae el suyo.
func ComputeETag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
