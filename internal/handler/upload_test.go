package handler

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
)

// multipartPhoto builds a request carrying one "photo" file part.
func multipartPhoto(t *testing.T, filename, contentType string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="photo"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest("POST", "/", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(maxPhotoBytes); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	file, header, err := req.FormFile("photo")
	if err != nil {
		t.Fatalf("FormFile: %v", err)
	}
	return file, header
}

func TestSavePhoto(t *testing.T) {
	uploads, err := NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}

	file, header := multipartPhoto(t, "face.png", "image/png", []byte("not-really-a-png"))
	defer file.Close()

	url, err := uploads.SavePhoto(file, header)
	if err != nil {
		t.Fatalf("SavePhoto: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/employee-") || !strings.HasSuffix(url, ".png") {
		t.Errorf("unexpected photo URL %q", url)
	}
}

func TestSavePhotoRejectsNonImage(t *testing.T) {
	uploads, err := NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}

	file, header := multipartPhoto(t, "notes.txt", "text/plain", []byte("hello"))
	defer file.Close()

	if _, err := uploads.SavePhoto(file, header); err == nil {
		t.Error("expected rejection for non-image content type")
	}
}

func TestSavePhotoRejectsOversize(t *testing.T) {
	uploads, err := NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}

	file, header := multipartPhoto(t, "big.jpg", "image/jpeg", []byte("x"))
	defer file.Close()
	header.Size = maxPhotoBytes + 1

	if _, err := uploads.SavePhoto(file, header); err == nil {
		t.Error("expected rejection for oversize photo")
	}
}
