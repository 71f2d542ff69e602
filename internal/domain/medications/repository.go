package medications

import "context"

// Repository es el document store: lee y reescribe el documento entero.
// No hay update por ítem a nivel storage; la unidad de escritura es
// siempre la lista completa.
//
// Load nunca falla por ausencia: si no hay documento devuelve uno vacío
// con IsNew=true. Save respeta doc.ETag si viene seteado (escritura
// condicional, ErrConflict si el documento cambió abajo).
type Repository interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) (Document, error)
}
