package client

import (
	"sync"
	"time"

	"med-dashboard/internal/domain/medications"
)

const dayLayout = "2006-01-02"

// Monitor detecta dosis vencidas: una medicación no completada cuya
// hora programada (de hoy) ya pasó. No agenda timers ni muta nada; el
// host lo consulta cuando la lista cambia y muestra la notificación.
type Monitor struct {
	mu    sync.Mutex
	acked map[medications.ID]string // id -> día (YYYY-MM-DD) en que se respondió
}

func NewMonitor() *Monitor {
	return &Monitor{
		acked: make(map[medications.ID]string),
	}
}

// Check devuelve a lo sumo una medicación vencida para mostrar (una
// notificación por corrida). Entre varias vencidas gana la de hora
// programada más temprana; a igual hora, el orden de la lista.
// Las ya respondidas hoy (Ack) se saltean hasta el día siguiente.
func (m *Monitor) Check(meds []medications.Medication, now time.Time) (medications.Medication, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := now.Format(dayLayout)

	var (
		best   medications.Medication
		bestAt time.Time
		found  bool
	)

	for _, med := range meds {
		if med.Completed {
			continue
		}
		if m.acked[med.ID] == day {
			continue
		}

		hour, minute, err := medications.ParseClock(med.Time)
		if err != nil {
			// hora ilegible: no se puede decidir vencimiento, se ignora
			continue
		}

		scheduled := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !scheduled.Before(now) {
			continue
		}

		if !found || scheduled.Before(bestAt) {
			best = med
			bestAt = scheduled
			found = true
		}
	}

	return best, found
}

// Ack marca que el usuario ya respondió la notificación de ese id; no
// se vuelve a ofrecer hasta que cambie el día.
func (m *Monitor) Ack(id medications.ID, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked[id] = at.Format(dayLayout)
}
