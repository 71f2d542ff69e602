package client

import (
	"testing"
	"time"

	"med-dashboard/internal/domain/medications"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 1, hour, min, 0, 0, time.UTC)
}

func TestMonitor_FlagsOverdueDose(t *testing.T) {
	m := NewMonitor()
	meds := []medications.Medication{
		{ID: "m1", Name: "Vitamin D", Time: "08:00", Completed: false},
	}

	// 07:59: todavía no venció (estrictamente antes de now)
	if _, ok := m.Check(meds, at(7, 59)); ok {
		t.Fatalf("must not flag before the scheduled time")
	}

	// 08:00 exacto: tampoco (scheduled < now, no <=)
	if _, ok := m.Check(meds, at(8, 0)); ok {
		t.Fatalf("must not flag at the exact scheduled minute")
	}

	// 09:00: vencida
	got, ok := m.Check(meds, at(9, 0))
	if !ok || got.ID != "m1" {
		t.Fatalf("expected m1 flagged at 09:00, got %+v ok=%v", got, ok)
	}
}

func TestMonitor_IgnoresCompletedAndUnparseable(t *testing.T) {
	m := NewMonitor()
	meds := []medications.Medication{
		{ID: "m1", Time: "08:00", Completed: true},
		{ID: "m2", Time: "whenever", Completed: false},
	}

	if _, ok := m.Check(meds, at(9, 0)); ok {
		t.Fatalf("completed/unparseable doses must not be flagged")
	}
}

func TestMonitor_PicksEarliestOverdue(t *testing.T) {
	m := NewMonitor()
	meds := []medications.Medication{
		{ID: "late", Time: "09:30"},
		{ID: "early", Time: "07:15"},
	}

	got, ok := m.Check(meds, at(10, 0))
	if !ok || got.ID != "early" {
		t.Fatalf("expected earliest overdue, got %+v", got)
	}
}

func TestMonitor_AckSuppressesUntilNextDay(t *testing.T) {
	m := NewMonitor()
	meds := []medications.Medication{
		{ID: "m1", Time: "08:00"},
	}

	if _, ok := m.Check(meds, at(9, 0)); !ok {
		t.Fatalf("expected flag before ack")
	}

	m.Ack("m1", at(9, 0))
	if _, ok := m.Check(meds, at(10, 0)); ok {
		t.Fatalf("acked dose must not re-notify the same day")
	}

	// al día siguiente vuelve a contar
	nextDay := at(9, 0).AddDate(0, 0, 1)
	if _, ok := m.Check(meds, nextDay); !ok {
		t.Fatalf("ack must expire with the day")
	}
}

func TestMonitor_OneNotificationPerRun(t *testing.T) {
	m := NewMonitor()
	meds := []medications.Medication{
		{ID: "a", Time: "06:00"},
		{ID: "b", Time: "07:00"},
	}

	got, ok := m.Check(meds, at(12, 0))
	if !ok {
		t.Fatalf("expected a flag")
	}
	// una sola por corrida: el resto queda para después del Ack
	if got.ID != "a" {
		t.Fatalf("expected earliest (a), got %s", got.ID)
	}

	m.Ack(got.ID, at(12, 0))
	next, ok := m.Check(meds, at(12, 5))
	if !ok || next.ID != "b" {
		t.Fatalf("expected b after acking a, got %+v", next)
	}
}
