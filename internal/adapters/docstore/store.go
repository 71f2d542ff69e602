// Package docstore implementa medications.Repository sobre un object
// store genérico (ports/blob): el documento completo viaja como un único
// JSON, sin estructura por ítem del lado del storage.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"med-dashboard/internal/domain/medications"
	"med-dashboard/internal/ports/blob"
)

type Store struct {
	blobs blob.Store
}

func New(blobs blob.Store) *Store {
	return &Store{blobs: blobs}
}

// Load resuelve la key de lectura y trae el documento.
// - Sin objetos: documento vacío con IsNew=true (no es error).
// - Objeto que no baja: ErrStorageUnavailable.
// - Objeto que no parsea: ErrMalformedDocument (nunca "vacío").
func (s *Store) Load(ctx context.Context) (medications.Document, error) {
	key, ok, err := resolveReadKey(ctx, s.blobs)
	if err != nil {
		return medications.Document{}, fmt.Errorf("%w: list objects: %v", medications.ErrStorageUnavailable, err)
	}
	if !ok {
		return medications.Document{
			Medications: []medications.Medication{},
			IsNew:       true,
		}, nil
	}

	data, obj, err := s.blobs.Get(ctx, key)
	if err != nil {
		return medications.Document{}, fmt.Errorf("%w: get %s: %v", medications.ErrStorageUnavailable, key, err)
	}

	var doc medications.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return medications.Document{}, fmt.Errorf("%w: %s: %v", medications.ErrMalformedDocument, key, err)
	}
	if doc.Medications == nil {
		doc.Medications = []medications.Medication{}
	}

	// El ETag solo sirve como precondición si leímos la key sobre la
	// que también escribimos. Viniendo de una key legacy, el primer
	// save migra a FixedKey sin condición.
	if key == FixedKey {
		doc.ETag = obj.ETag
	}

	return doc, nil
}

// Save serializa y sobreescribe la key fija. Si doc.ETag viene seteado
// (mutación load→save), el put es condicional: si el objeto cambió
// abajo, ErrConflict y no se escribe nada. El put es todo-o-nada; el
// caller nunca ve un documento a medias.
func (s *Store) Save(ctx context.Context, doc medications.Document) (medications.Document, error) {
	if doc.Medications == nil {
		doc.Medications = []medications.Medication{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return medications.Document{}, fmt.Errorf("marshal document: %w", err)
	}

	obj, err := s.blobs.Put(ctx, FixedKey, data, blob.PutOptions{
		ContentType: "application/json",
		Overwrite:   true,
		IfMatch:     doc.ETag,
	})
	if err != nil {
		if errors.Is(err, blob.ErrPreconditionFailed) {
			return medications.Document{}, fmt.Errorf("%w: %s", medications.ErrConflict, FixedKey)
		}
		return medications.Document{}, fmt.Errorf("%w: put %s: %v", medications.ErrStorageUnavailable, FixedKey, err)
	}

	doc.ETag = obj.ETag
	doc.IsNew = false
	return doc, nil
}
