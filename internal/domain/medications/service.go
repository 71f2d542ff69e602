package medications

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medication not found")

	// ErrConflict: el documento cambió entre el load y el save de una
	// mutación (otra escritura ganó). El caller puede reintentar.
	ErrConflict = errors.New("document conflict")

	// ErrMalformedDocument: hay un objeto guardado pero no parsea como
	// documento. Fatal para esa lectura; nunca se reinterpreta como vacío.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrStorageUnavailable: el backend de objetos no respondió o
	// respondió con error. Siempre se propaga, nunca se reintenta acá.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Service implementa el CRUD sobre el documento completo: cada mutación
// es un ciclo load → modificar → save de la lista entera.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// List devuelve el documento actual (vacío con IsNew si nunca se guardó).
func (s *Service) List(ctx context.Context) (Document, error) {
	return s.repo.Load(ctx)
}

// ReplaceAll reescribe la lista completa. nil cuenta como lista vacía
// (vaciar el documento es válido). Es una sobreescritura ciega: no pasa
// por load, así que entre dos ReplaceAll concurrentes gana el último
// (last-write-wins documentado; ver DESIGN.md).
func (s *Service) ReplaceAll(ctx context.Context, meds []Medication) (Document, error) {
	if meds == nil {
		meds = []Medication{}
	}

	doc := Document{
		Medications: meds,
		LastUpdated: s.stamp(),
		Version:     SchemaVersion,
	}
	return s.repo.Save(ctx, doc)
}

// Patch mergea los campos permitidos sobre la medicación con ese id y
// estampa updatedAt. Si el id no existe: ErrNotFound (política elegida;
// nada se escribe). El save es condicional al ETag leído, así dos Patch
// concurrentes no se pisan en silencio.
func (s *Service) Patch(ctx context.Context, id ID, upd Update) (Document, error) {
	if id == "" {
		return Document{}, ErrInvalidInput
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return Document{}, ErrInvalidInput
	}
	if upd.Time != nil {
		if _, _, err := ParseClock(*upd.Time); err != nil {
			return Document{}, ErrInvalidInput
		}
	}

	doc, err := s.repo.Load(ctx)
	if err != nil {
		return Document{}, err
	}

	idx := -1
	for i := range doc.Medications {
		if doc.Medications[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Document{}, ErrNotFound
	}

	ts := s.stamp()
	upd.Apply(&doc.Medications[idx])
	doc.Medications[idx].UpdatedAt = ts
	doc.LastUpdated = ts
	doc.Version = SchemaVersion

	return s.repo.Save(ctx, doc)
}

// Delete filtra la medicación con ese id y reescribe. Segundo delete
// del mismo id: ErrNotFound, el documento persistido no cambia
// (idempotente en efecto, no en timestamps).
func (s *Service) Delete(ctx context.Context, id ID) (Document, error) {
	if id == "" {
		return Document{}, ErrInvalidInput
	}

	doc, err := s.repo.Load(ctx)
	if err != nil {
		return Document{}, err
	}

	next := make([]Medication, 0, len(doc.Medications))
	found := false
	for _, m := range doc.Medications {
		if m.ID == id {
			found = true
			continue
		}
		next = append(next, m)
	}
	if !found {
		return Document{}, ErrNotFound
	}

	doc.Medications = next
	doc.LastUpdated = s.stamp()
	doc.Version = SchemaVersion

	return s.repo.Save(ctx, doc)
}
