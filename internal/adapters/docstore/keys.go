package docstore

import (
	"context"
	"sort"
	"strings"

	"med-dashboard/internal/ports/blob"
)

const (
	// KeyPrefix es el prefijo histórico de todos los objetos del
	// documento (lo comparten las keys viejas con slug/timestamp).
	KeyPrefix = "medications-data"

	// FixedKey es la única key sobre la que escribimos hoy. Política de
	// key fija: siempre sobreescribir el mismo objeto, cero acumulación
	// de objetos viejos y cero ambigüedad sobre cuál es "el último".
	FixedKey = "medications-data.json"
)

const maxSlugLen = 60

// resolveReadKey elige el objeto autoritativo. Primero la key fija; si
// no existe, el objeto más reciente (por UploadedAt) bajo el prefijo,
// para seguir leyendo documentos escritos por deployments viejos que
// minteaban keys con slug o timestamp. Sin objetos => ok=false, que no
// es error: significa documento vacío.
func resolveReadKey(ctx context.Context, blobs blob.Store) (string, bool, error) {
	objs, err := blobs.List(ctx, KeyPrefix)
	if err != nil {
		return "", false, err
	}
	if len(objs) == 0 {
		return "", false, nil
	}

	for _, o := range objs {
		if o.Key == FixedKey {
			return FixedKey, true, nil
		}
	}

	// Solo keys legacy: gana la más nueva.
	sort.Slice(objs, func(i, j int) bool {
		return objs[i].UploadedAt.After(objs[j].UploadedAt)
	})
	return objs[0].Key, true, nil
}

// Slugify normaliza un nombre a un token corto y seguro para usar en
// una key (minúsculas, espacios a guiones, solo [a-z0-9-], máximo 60).
// Un nombre que normaliza a nada cae en "unnamed", nunca en key vacía.
// Hoy lo usa el módulo de uploads; las keys del documento son fijas.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}

	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-")

	if len(out) > maxSlugLen {
		out = out[:maxSlugLen]
	}
	if out == "" {
		return "unnamed"
	}
	return out
}
