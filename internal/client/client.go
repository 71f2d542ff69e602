// Package client es el lado consumidor del API de medicaciones: mantiene
// la lista en memoria, aplica updates optimistas y revierte al snapshot
// exacto si el server no confirma.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"med-dashboard/internal/domain/medications"
	"med-dashboard/internal/platform/httpclient"
)

const apiPath = "/api/medications"

// Client serializa TODAS las mutaciones a través de un único lock que
// se mantiene durante el round-trip: nunca hay dos reescrituras de la
// lista completa en vuelo a la vez desde este cliente (evita que dos
// saves con base desactualizada se pisen entre sí).
type Client struct {
	http *httpclient.Client

	now   func() time.Time
	newID func() string

	mu          sync.Mutex
	meds        []medications.Medication
	lastUpdated string
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	hc, err := httpclient.New(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:  hc,
		now:   time.Now,
		newID: uuid.NewString,
	}, nil
}

// AddInput replica el formulario de alta. Name y Time son obligatorios.
type AddInput struct {
	Name        string
	Time        string
	Dosage      string
	Frequency   string
	Notes       string
	Description string
}

// Respuestas del API (envelope {success, ...}).
type apiListResponse struct {
	Success     bool                     `json:"success"`
	Medications []medications.Medication `json:"medications"`
	LastUpdated string                   `json:"lastUpdated"`
	Error       string                   `json:"error"`
}

type apiDataResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Medications []medications.Medication `json:"medications"`
		LastUpdated string                   `json:"lastUpdated"`
		Version     string                   `json:"version"`
	} `json:"data"`
}

type apiOKResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Medications devuelve una copia del estado local actual.
func (c *Client) Medications() []medications.Medication {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneMeds(c.meds)
}

func (c *Client) LastUpdated() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUpdated
}

// Load trae la lista remota y la adopta como estado. Si falla, el
// estado queda como estaba (vacío en el arranque, nunca basura parcial).
func (c *Client) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var resp apiListResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, apiPath, nil, &resp); err != nil {
		return apiError(resp.Error, err)
	}
	if !resp.Success {
		return errors.New(errOr(resp.Error, "load failed"))
	}

	c.meds = resp.Medications
	if c.meds == nil {
		c.meds = []medications.Medication{}
	}
	c.lastUpdated = resp.LastUpdated
	return nil
}

// Add es pesimista: el registro no existe en ningún lado hasta que el
// primer save remoto confirme, recién ahí entra al estado visible.
func (c *Client) Add(ctx context.Context, in AddInput) (medications.Medication, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Time) == "" {
		return medications.Medication{}, fmt.Errorf("%w: name and time required", medications.ErrInvalidInput)
	}
	if _, _, err := medications.ParseClock(in.Time); err != nil {
		return medications.Medication{}, fmt.Errorf("%w: time must be HH:MM", medications.ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	med := medications.Medication{
		ID:          medications.ID(c.newID()),
		Name:        strings.TrimSpace(in.Name),
		Time:        strings.TrimSpace(in.Time),
		Dosage:      in.Dosage,
		Frequency:   in.Frequency,
		Notes:       in.Notes,
		Description: in.Description,
		Completed:   false,
		CreatedAt:   c.now().UTC().Format(time.RFC3339),
	}

	next := append(cloneMeds(c.meds), med)

	var resp apiDataResponse
	body := map[string]any{"medications": next}
	if err := c.http.DoJSON(ctx, http.MethodPost, apiPath, body, &resp); err != nil {
		return medications.Medication{}, apiError(resp.Error, err)
	}
	if !resp.Success {
		return medications.Medication{}, errors.New(errOr(resp.Error, "save failed"))
	}

	c.meds = next
	c.lastUpdated = resp.Data.LastUpdated
	return med, nil
}

// ToggleCompleted invierte completed para ese id: aplica local primero
// (optimista) y si el PATCH falla restaura el snapshot previo exacto.
func (c *Client) ToggleCompleted(ctx context.Context, id medications.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return medications.ErrNotFound
	}

	snapshot := cloneMeds(c.meds)

	completed := !c.meds[idx].Completed
	c.meds[idx].Completed = completed

	upd := medications.Update{Completed: &completed}
	if err := c.patchRemote(ctx, id, upd); err != nil {
		c.meds = snapshot
		return err
	}
	return nil
}

// Patch aplica un update parcial con la misma disciplina optimista.
func (c *Client) Patch(ctx context.Context, id medications.ID, upd medications.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return medications.ErrNotFound
	}

	snapshot := cloneMeds(c.meds)
	upd.Apply(&c.meds[idx])

	if err := c.patchRemote(ctx, id, upd); err != nil {
		c.meds = snapshot
		return err
	}
	return nil
}

// Delete saca el ítem local (optimista) y si el DELETE remoto falla
// restaura el array previo tal cual estaba.
func (c *Client) Delete(ctx context.Context, id medications.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return medications.ErrNotFound
	}

	snapshot := cloneMeds(c.meds)
	c.meds = append(c.meds[:idx:idx], c.meds[idx+1:]...)

	var resp apiOKResponse
	body := map[string]any{"id": id}
	if err := c.http.DoJSON(ctx, http.MethodDelete, apiPath, body, &resp); err != nil {
		c.meds = snapshot
		return apiError(resp.Error, err)
	}
	if !resp.Success {
		c.meds = snapshot
		return errors.New(errOr(resp.Error, "delete failed"))
	}
	return nil
}

func (c *Client) patchRemote(ctx context.Context, id medications.ID, upd medications.Update) error {
	var resp apiDataResponse
	body := map[string]any{"id": id, "updates": upd}
	if err := c.http.DoJSON(ctx, http.MethodPatch, apiPath, body, &resp); err != nil {
		return apiError(resp.Error, err)
	}
	if !resp.Success {
		return errors.New(errOr(resp.Error, "patch failed"))
	}
	c.lastUpdated = resp.Data.LastUpdated
	return nil
}

// indexOf asume c.mu tomado.
func (c *Client) indexOf(id medications.ID) int {
	for i := range c.meds {
		if c.meds[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneMeds(meds []medications.Medication) []medications.Medication {
	out := make([]medications.Medication, len(meds))
	copy(out, meds)
	return out
}

// apiError prefiere el mensaje del envelope si el server llegó a mandar
// {success:false, error}; si no, el error de transporte tal cual.
func apiError(envelopeMsg string, err error) error {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) && envelopeMsg != "" {
		return errors.New(envelopeMsg)
	}
	return err
}

func errOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
