package openapi

import (
	"testing"
)

func TestGenerateSpec(t *testing.T) {
	doc := GenerateSpec("http://localhost:8080", "1.2.3")

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI version = %q, want 3.1.0", doc.OpenAPI)
	}
	if doc.Info.Version != "1.2.3" {
		t.Errorf("Info.Version = %q, want 1.2.3", doc.Info.Version)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:8080" {
		t.Errorf("unexpected servers: %+v", doc.Servers)
	}

	for _, path := range []string{
		"/api/v1/auth/session",
		"/api/v1/auth/me",
		"/api/v1/setup",
		"/api/v1/employees",
		"/api/v1/employees/{id}",
		"/api/v1/employees/{id}/qr-url",
		"/api/v1/employees/{id}/qr.png",
		"/api/v1/verify/{employeeId}",
		"/api/v1/stats",
		"/api/v1/scan",
		"/api/v1/email/test",
	} {
		if doc.Paths.Value(path) == nil {
			t.Errorf("missing path %s", path)
		}
	}

	for _, name := range []string{"Employee", "EmployeeInput", "VerificationResult", "Stats", "ScanResult", "ErrorResponse"} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("missing component schema %s", name)
		}
	}

	// The public verify endpoint carries no security requirement.
	verify := doc.Paths.Value("/api/v1/verify/{employeeId}").Get
	if verify.Security != nil {
		t.Error("verify endpoint should be public")
	}
	employees := doc.Paths.Value("/api/v1/employees").Get
	if employees.Security == nil || len(*employees.Security) == 0 {
		t.Error("employees list should require auth")
	}
}
