package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/skip2/go-qrcode"

	"github.com/trustpass/trustpass/internal/store"
)

// Badge QR codes encode the public verification URL, so a printed badge
// keeps working as long as the business employee ID is stable.

const (
	qrSizeDefault = 512
	qrSizeMin     = 128
	qrSizeMax     = 1024
)

// QRHandler renders verification QR codes for employee badges.
type QRHandler struct {
	store *store.Store
	// publicBaseURL is the externally reachable origin embedded in QR
	// codes, e.g. "https://verify.example.com".
	publicBaseURL string
}

// NewQRHandler creates a new QRHandler.
func NewQRHandler(st *store.Store, publicBaseURL string) *QRHandler {
	return &QRHandler{store: st, publicBaseURL: publicBaseURL}
}

// VerificationURL returns the URL a badge QR code points at.
func (h *QRHandler) VerificationURL(businessID string) string {
	return fmt.Sprintf("%s/api/v1/verify/%s", h.publicBaseURL, url.PathEscape(businessID))
}

// URL returns the verification URL for an employee without rendering the
// image, for clients that draw the code themselves.
// GET /api/v1/employees/{id}/qr-url
func (h *QRHandler) URL(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid employee ID")
		return
	}
	e, err := h.store.GetEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Employee not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch employee: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"employee_id": e.EmployeeID,
		"url":         h.VerificationURL(e.EmployeeID),
	})
}

// Image renders the verification QR code as a PNG. The optional size query
// parameter sets the edge length in pixels.
// GET /api/v1/employees/{id}/qr.png
func (h *QRHandler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid employee ID")
		return
	}
	e, err := h.store.GetEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Employee not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch employee: "+err.Error())
		return
	}

	size := clampInt(queryInt(r, "size", qrSizeDefault), qrSizeMin, qrSizeMax)
	png, err := qrcode.Encode(h.VerificationURL(e.EmployeeID), qrcode.Medium, size)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to render QR code: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
