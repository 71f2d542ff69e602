package medications

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SchemaVersion es la versión del documento persistido. Constante para
// este diseño; viaja en el campo "version" del JSON.
const SchemaVersion = "1.0"

// ID de una medicación. Documentos históricos guardan ids numéricos
// (epoch millis del cliente viejo), los nuevos usan uuid. Aceptamos
// ambos al deserializar y normalizamos a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = ID(n.String())
		return nil
	}

	return fmt.Errorf("medications: invalid id %s", string(b))
}

// Medication es la entidad unitaria del documento.
// Los timestamps viajan como strings ISO-8601 tal como los persiste el
// documento; el server los estampa pero nunca los interpreta.
type Medication struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Time string `json:"time"` // hora local del día, HH:MM

	Dosage      string `json:"dosage,omitempty"`
	Frequency   string `json:"frequency,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Description string `json:"description,omitempty"`

	Completed bool `json:"completed"`

	CreatedAt string `json:"createdAt,omitempty"` // inmutable después de la creación
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Document es el agregado persistido: una única lista por deployment.
// ETag e IsNew son metadata de transporte del store, no se serializan.
type Document struct {
	Medications []Medication `json:"medications"`
	LastUpdated string       `json:"lastUpdated,omitempty"`
	Version     string       `json:"version,omitempty"`

	IsNew bool   `json:"-"`
	ETag  string `json:"-"`
}

// Update es el patch parcial permitido sobre una medicación.
// Punteros para PATCH real: nil = no tocar. Allow-list explícita:
// id y createdAt no aparecen acá a propósito.
type Update struct {
	Name        *string `json:"name"`
	Time        *string `json:"time"`
	Dosage      *string `json:"dosage"`
	Frequency   *string `json:"frequency"`
	Notes       *string `json:"notes"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// Apply mergea los campos presentes sobre la medicación. El cliente lo
// usa para reflejar localmente lo mismo que el server va a mergear.
func (u Update) Apply(m *Medication) {
	if u.Name != nil {
		m.Name = strings.TrimSpace(*u.Name)
	}
	if u.Time != nil {
		m.Time = strings.TrimSpace(*u.Time)
	}
	if u.Dosage != nil {
		m.Dosage = *u.Dosage
	}
	if u.Frequency != nil {
		m.Frequency = *u.Frequency
	}
	if u.Notes != nil {
		m.Notes = *u.Notes
	}
	if u.Description != nil {
		m.Description = *u.Description
	}
	if u.Completed != nil {
		m.Completed = *u.Completed
	}
}

// ParseClock valida una hora HH:MM (acepta también H:MM, que mandaban
// clientes viejos). Devuelve hora y minuto del día.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("medications: invalid time %q", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("medications: invalid time %q", s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("medications: invalid time %q", s)
	}

	return hour, minute, nil
}
