package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trustpass/trustpass/internal/model"
	"github.com/trustpass/trustpass/internal/notify"
	"github.com/trustpass/trustpass/internal/store"
)

// EmployeeHandler serves the admin roster CRUD and the public verification
// endpoint.
type EmployeeHandler struct {
	store    *store.Store
	notifier *notify.Notifier
	uploads  *UploadStore
	logger   *slog.Logger
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(st *store.Store, notifier *notify.Notifier, uploads *UploadStore, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		store:    st,
		notifier: notifier,
		uploads:  uploads,
		logger:   logger,
	}
}

// employeeInput is the create/update payload. Pointer fields distinguish
// "absent" from "set to zero" so PATCH can be partial.
type employeeInput struct {
	EmployeeID     *string    `json:"employee_id"`
	FullName       *string    `json:"full_name"`
	Email          *string    `json:"email"`
	DBSNumber      *string    `json:"dbs_number"`
	DBSExpiryDate  *time.Time `json:"dbs_expiry_date"`
	Position       *string    `json:"position"`
	StartDate      *time.Time `json:"start_date"`
	EmploymentType *string    `json:"employment_type"`
	ValidUntilDate *time.Time `json:"valid_until_date"`
	PhotoURL       *string    `json:"photo_url"`
	IsActive       *bool      `json:"is_active"`
	IsSuspended    *bool      `json:"is_suspended"`
}

// apply copies the set fields onto e.
func (in *employeeInput) apply(e *model.Employee) {
	if in.EmployeeID != nil {
		e.EmployeeID = *in.EmployeeID
	}
	if in.FullName != nil {
		e.FullName = *in.FullName
	}
	if in.Email != nil {
		e.Email = *in.Email
	}
	if in.DBSNumber != nil {
		e.DBSNumber = *in.DBSNumber
	}
	if in.DBSExpiryDate != nil {
		e.DBSExpiryDate = in.DBSExpiryDate
	}
	if in.Position != nil {
		e.Position = *in.Position
	}
	if in.StartDate != nil {
		e.StartDate = *in.StartDate
	}
	if in.EmploymentType != nil {
		e.EmploymentType = model.EmploymentType(*in.EmploymentType)
	}
	if in.ValidUntilDate != nil {
		e.ValidUntilDate = in.ValidUntilDate
	}
	if in.PhotoURL != nil {
		e.PhotoURL = *in.PhotoURL
	}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	if in.IsSuspended != nil {
		e.IsSuspended = *in.IsSuspended
	}
}

// readEmployeeInput decodes the request as either JSON or multipart form
// data. Multipart requests may carry a photo file, which is stored and
// surfaces as the PhotoURL field.
func (h *EmployeeHandler) readEmployeeInput(r *http.Request) (*employeeInput, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var in employeeInput
		if err := readJSON(r, &in); err != nil {
			return nil, err
		}
		return &in, nil
	}

	if err := r.ParseMultipartForm(maxPhotoBytes + 64*1024); err != nil {
		return nil, err
	}
	in := &employeeInput{}
	setString := func(key string, dst **string) {
		if vals, ok := r.MultipartForm.Value[key]; ok && len(vals) > 0 {
			v := vals[0]
			*dst = &v
		}
	}
	setString("employee_id", &in.EmployeeID)
	setString("full_name", &in.FullName)
	setString("email", &in.Email)
	setString("dbs_number", &in.DBSNumber)
	setString("position", &in.Position)
	setString("employment_type", &in.EmploymentType)

	setTime := func(key string, dst **time.Time) error {
		vals, ok := r.MultipartForm.Value[key]
		if !ok || len(vals) == 0 || vals[0] == "" {
			return nil
		}
		t, err := parseDate(vals[0])
		if err != nil {
			return err
		}
		*dst = &t
		return nil
	}
	if err := setTime("dbs_expiry_date", &in.DBSExpiryDate); err != nil {
		return nil, err
	}
	if err := setTime("start_date", &in.StartDate); err != nil {
		return nil, err
	}
	if err := setTime("valid_until_date", &in.ValidUntilDate); err != nil {
		return nil, err
	}

	setBool := func(key string, dst **bool) {
		if vals, ok := r.MultipartForm.Value[key]; ok && len(vals) > 0 {
			b := vals[0] == "true" || vals[0] == "1"
			*dst = &b
		}
	}
	setBool("is_active", &in.IsActive)
	setBool("is_suspended", &in.IsSuspended)

	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		url, err := h.uploads.SavePhoto(file, header)
		if err != nil {
			return nil, err
		}
		in.PhotoURL = &url
	}

	return in, nil
}

// parseDate accepts RFC 3339 timestamps or bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// List returns the full roster, newest first.
// GET /api/v1/employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to list employees: "+err.Error())
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: employees,
		Meta:     &model.ResponseMeta{Count: len(employees)},
	})
}

// Create adds a new roster entry.
// POST /api/v1/employees
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := h.readEmployeeInput(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	e := &model.Employee{
		EmploymentType: model.EmploymentPermanent,
		IsActive:       true,
	}
	in.apply(e)
	if err := e.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.GetEmployeeByBusinessID(r.Context(), e.EmployeeID); err == nil {
		writeError(w, r, http.StatusConflict, "Employee ID already exists", map[string]interface{}{
			"employee_id": e.EmployeeID,
		})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusInternalServerError, "Failed to create employee: "+err.Error())
		return
	}

	if err := h.store.CreateEmployee(r.Context(), e); err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to create employee: "+err.Error())
		return
	}

	h.logger.Info("employee created", "employee", e.EmployeeID, "id", e.ID)
	writeJSON(w, http.StatusCreated, e)
}

// Get fetches one employee by surrogate ID.
// GET /api/v1/employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, e)
}

// Update applies a partial update. Flipping is_suspended on, or is_active
// off, fires the corresponding admin notification email inline.
// PATCH /api/v1/employees/{id}
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	in, err := h.readEmployeeInput(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	wasSuspended := e.IsSuspended
	wasActive := e.IsActive

	in.apply(e)
	if err := e.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateEmployee(r.Context(), e); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Employee not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to update employee: "+err.Error())
		return
	}

	// Status-change alerts fire only on the transition, not on every save.
	if !wasSuspended && e.IsSuspended {
		if err := h.notifier.NotifyStatusChange(r.Context(), e, model.NotificationEmployeeSuspended); err != nil {
			h.logger.Error("suspension notification failed", "employee", e.EmployeeID, "error", err)
		}
	}
	if wasActive && !e.IsActive {
		if err := h.notifier.NotifyStatusChange(r.Context(), e, model.NotificationEmployeeDeactivated); err != nil {
			h.logger.Error("deactivation notification failed", "employee", e.EmployeeID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, e)
}

// Delete removes an employee along with their verification and notification
// history.
// DELETE /api/v1/employees/{id}
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid employee ID")
		return
	}
	if err := h.store.DeleteEmployee(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Employee not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to delete employee: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// verifyResponse is the public verification view. It exposes only what a
// member of the public needs to check a badge; internal fields stay hidden.
type verifyResponse struct {
	EmployeeID  string       `json:"employee_id"`
	FullName    string       `json:"full_name"`
	Position    string       `json:"position,omitempty"`
	PhotoURL    string       `json:"photo_url,omitempty"`
	Status      model.Status `json:"status"`
	StatusLabel string       `json:"status_label"`
	VerifiedAt  time.Time    `json:"verified_at"`
}

// Verify is the public QR-code endpoint: it resolves the badge ID, appends
// an audit row, and returns the derived status.
// GET /api/v1/verify/{employeeId}
func (h *EmployeeHandler) Verify(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "employeeId")
	e, err := h.store.GetEmployeeByBusinessID(r.Context(), businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Employee not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Verification failed: "+err.Error())
		return
	}

	now := time.Now().UTC()
	v := &model.Verification{
		EmployeeID: e.ID,
		VerifiedAt: now,
		VerifierIP: clientIP(r),
	}
	if err := h.store.CreateVerification(r.Context(), v); err != nil {
		// The check still answers; losing one audit row is preferable to
		// failing a gate check at a site entrance.
		h.logger.Error("failed to record verification", "employee", e.EmployeeID, "error", err)
	}

	status := e.StatusAt(now)
	writeJSON(w, http.StatusOK, verifyResponse{
		EmployeeID:  e.EmployeeID,
		FullName:    e.FullName,
		Position:    e.Position,
		PhotoURL:    e.PhotoURL,
		Status:      status,
		StatusLabel: status.Label(),
		VerifiedAt:  now,
	})
}

// employeeID parses the {id} route parameter.
func employeeID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// clientIP returns the caller address without the ephemeral port. RealIP has
// already folded proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
