package medications

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta el recurso único /api/medications con los cuatro
// verbos. Cualquier otro método lo corta chi con 405.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/medications", func(mr chi.Router) {
		mr.Get("/", listHandler(svc))
		mr.Post("/", replaceAllHandler(svc))
		mr.Patch("/", patchHandler(svc))
		mr.Delete("/", deleteHandler(svc))
	})
}

// Envelope de respuesta del API: {success, ...}. El cliente viejo
// (dashboard web) chequea `success` antes que el status HTTP, así que
// siempre va, también en errores.
type listResponse struct {
	Success     bool         `json:"success"`
	Medications []Medication `json:"medications"`
	LastUpdated string       `json:"lastUpdated,omitempty"`
	IsNew       bool         `json:"isNew,omitempty"`
}

type dataResponse struct {
	Success bool         `json:"success"`
	Data    documentData `json:"data"`
}

type documentData struct {
	Medications []Medication `json:"medications"`
	LastUpdated string       `json:"lastUpdated"`
	Version     string       `json:"version"`
}

type okResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type replaceAllRequest struct {
	Medications []Medication `json:"medications"`
}

type patchRequest struct {
	ID      ID     `json:"id"`
	Updates Update `json:"updates"`
}

type deleteRequest struct {
	ID ID `json:"id"`
}

func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, listResponse{
			Success:     true,
			Medications: doc.Medications,
			LastUpdated: doc.LastUpdated,
			IsNew:       doc.IsNew,
		})
	}
}

func replaceAllHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req replaceAllRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid json")
			return
		}

		doc, err := svc.ReplaceAll(r.Context(), req.Medications)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: toDocumentData(doc)})
	}
}

func patchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req patchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid json")
			return
		}

		doc, err := svc.Patch(r.Context(), req.ID, req.Updates)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: toDocumentData(doc)})
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid json")
			return
		}

		if _, err := svc.Delete(r.Context(), req.ID); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, okResponse{Success: true})
	}
}

func toDocumentData(doc Document) documentData {
	meds := doc.Medications
	if meds == nil {
		meds = []Medication{}
	}
	return documentData{
		Medications: meds,
		LastUpdated: doc.LastUpdated,
		Version:     doc.Version,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	default:
		// StorageUnavailable / MalformedDocument / lo que sea: 500.
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
	}
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
