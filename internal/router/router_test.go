package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	memblob "med-dashboard/internal/adapters/blob/memory"
	"med-dashboard/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(router.NewRouter(router.Options{Blobs: memblob.New()}))
}

func TestHTTP_EmptyStoreReturnsIsNew(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/api/medications", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}

	var resp struct {
		Success     bool             `json:"success"`
		Medications []map[string]any `json:"medications"`
		IsNew       bool             `json:"isNew"`
	}
	mustUnmarshal(t, body, &resp)

	if !resp.Success || !resp.IsNew {
		t.Fatalf("expected success+isNew, got %s", string(body))
	}
	if resp.Medications == nil || len(resp.Medications) != 0 {
		t.Fatalf("expected empty medications array, got %s", string(body))
	}
}

func TestHTTP_PostThenGetRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	// id numérico a propósito: así los mandaba el dashboard viejo
	st, body := doReq(t, ts.URL, "POST", "/api/medications", map[string]any{
		"medications": []map[string]any{
			{"id": 1, "name": "X", "time": "08:00", "completed": false},
		},
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 post, got %d body=%s", st, string(body))
	}

	var postResp struct {
		Success bool `json:"success"`
		Data    struct {
			LastUpdated string `json:"lastUpdated"`
			Version     string `json:"version"`
		} `json:"data"`
	}
	mustUnmarshal(t, body, &postResp)
	if !postResp.Success || postResp.Data.LastUpdated == "" || postResp.Data.Version != "1.0" {
		t.Fatalf("post response missing stamps: %s", string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/api/medications", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 get, got %d", st)
	}

	var getResp struct {
		Success     bool `json:"success"`
		Medications []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Time      string `json:"time"`
			Completed bool   `json:"completed"`
		} `json:"medications"`
		LastUpdated string `json:"lastUpdated"`
		IsNew       bool   `json:"isNew"`
	}
	mustUnmarshal(t, body, &getResp)

	if !getResp.Success || getResp.IsNew {
		t.Fatalf("expected persisted document, got %s", string(body))
	}
	if len(getResp.Medications) != 1 {
		t.Fatalf("expected 1 medication, got %s", string(body))
	}
	m := getResp.Medications[0]
	if m.ID != "1" || m.Name != "X" || m.Time != "08:00" || m.Completed {
		t.Fatalf("record mismatch: %+v", m)
	}
	if getResp.LastUpdated == "" {
		t.Fatalf("lastUpdated not set")
	}
}

func TestHTTP_PatchUnknownIDIs404(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	seedMeds(t, ts.URL)

	st, body := doReq(t, ts.URL, "PATCH", "/api/medications", map[string]any{
		"id":      "ghost",
		"updates": map[string]any{"completed": true},
	})
	if st != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", st, string(body))
	}

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	mustUnmarshal(t, body, &resp)
	if resp.Success || resp.Error == "" {
		t.Fatalf("expected error envelope, got %s", string(body))
	}

	// el documento no cambió
	st, body = doReq(t, ts.URL, "GET", "/api/medications", nil)
	if st != http.StatusOK || !bytes.Contains(body, []byte(`"Vitamin D"`)) {
		t.Fatalf("document must be untouched, got %s", string(body))
	}
}

func TestHTTP_PatchAndDelete(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	seedMeds(t, ts.URL)

	st, body := doReq(t, ts.URL, "PATCH", "/api/medications", map[string]any{
		"id":      "m1",
		"updates": map[string]any{"completed": true, "dosage": "2000 IU"},
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 patch, got %d body=%s", st, string(body))
	}
	if !bytes.Contains(body, []byte(`"completed":true`)) || !bytes.Contains(body, []byte(`"2000 IU"`)) {
		t.Fatalf("patch not reflected: %s", string(body))
	}

	st, body = doReq(t, ts.URL, "DELETE", "/api/medications", map[string]any{"id": "m1"})
	if st != http.StatusOK {
		t.Fatalf("expected 200 delete, got %d body=%s", st, string(body))
	}

	// segundo delete del mismo id: 404 (política elegida) y documento igual
	st, _ = doReq(t, ts.URL, "DELETE", "/api/medications", map[string]any{"id": "m1"})
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", st)
	}

	st, body = doReq(t, ts.URL, "GET", "/api/medications", nil)
	if st != http.StatusOK || bytes.Contains(body, []byte(`"m1"`)) {
		t.Fatalf("m1 must be gone: %s", string(body))
	}
}

func TestHTTP_OtherMethodsAre405(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	st, _ := doReq(t, ts.URL, "PUT", "/api/medications", map[string]any{})
	if st != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for PUT, got %d", st)
	}
}

func TestHTTP_InvalidJSONIs400(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	req, _ := http.NewRequest("POST", ts.URL+"/api/medications", bytes.NewReader([]byte("{nope")))
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}

func TestHTTP_UploadStoresFile(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "My Report.PDF")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write([]byte("%PDF-1.4 fake"))
	_ = mw.Close()

	req, _ := http.NewRequest("POST", ts.URL+"/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 upload, got %d body=%s", res.StatusCode, string(body))
	}

	var resp struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}
	mustUnmarshal(t, body, &resp)
	if resp.Key != "medical_history-my-report.pdf" {
		t.Fatalf("unexpected key %q", resp.Key)
	}
	if resp.URL == "" {
		t.Fatalf("missing url in %s", string(body))
	}
}

func TestHTTP_UploadWithoutFileIs400(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.Close()

	req, _ := http.NewRequest("POST", ts.URL+"/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}

func seedMeds(t *testing.T, baseURL string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/api/medications", map[string]any{
		"medications": []map[string]any{
			{"id": "m1", "name": "Vitamin D", "time": "08:00", "completed": false},
			{"id": "m2", "name": "Evening Medication", "time": "20:00", "completed": false},
		},
	})
	if st != http.StatusOK {
		t.Fatalf("seed: expected 200, got %d body=%s", st, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}

func mustUnmarshal(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("unmarshal %s: %v", string(body), err)
	}
}
