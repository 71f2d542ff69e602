// Package uploads maneja la subida del historial médico (un archivo por
// usuario, siempre se reemplaza el anterior).
package uploads

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"med-dashboard/internal/adapters/docstore"
	"med-dashboard/internal/ports/blob"
)

const (
	keyPrefix     = "medical_history"
	maxUploadSize = 10 << 20 // 10MB
)

func RegisterRoutes(r chi.Router, blobs blob.Store) {
	r.Post("/api/upload", uploadHandler(blobs))
}

type uploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

func uploadHandler(blobs blob.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "no file uploaded", http.StatusBadRequest)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "read upload: "+err.Error(), http.StatusBadRequest)
			return
		}

		obj, err := blobs.Put(r.Context(), objectKey(hdr.Filename), data, blob.PutOptions{
			ContentType: hdr.Header.Get("Content-Type"),
			Overwrite:   true, // siempre reemplaza el archivo anterior
		})
		if err != nil {
			http.Error(w, "store upload: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(uploadResponse{URL: obj.URL, Key: obj.Key})
	}
}

// objectKey arma la key a partir del nombre original: base saneada con
// Slugify (nunca vacía) + extensión original para conservar el mime.
func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return keyPrefix + "-" + docstore.Slugify(base) + ext
}
