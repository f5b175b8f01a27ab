package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// GenerateSpec builds the OpenAPI 3.1 document for the TrustPass API. The
// surface is fixed, so the document is assembled programmatically rather
// than maintained as a YAML artifact that drifts from the handlers.
func GenerateSpec(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "TrustPass API",
			Description: "Employee verification service: admin roster management, DBS clearance tracking and QR-based public status checks.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Components.SecuritySchemes["cookieAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "cookie",
			Name: "trustpass_session",
		},
	}

	doc.Components.Schemas["ErrorResponse"] = errorResponseSchema()
	doc.Components.Schemas["Employee"] = employeeSchema()
	doc.Components.Schemas["EmployeeInput"] = employeeInputSchema()
	doc.Components.Schemas["VerificationResult"] = verificationResultSchema()
	doc.Components.Schemas["Stats"] = statsSchema()
	doc.Components.Schemas["ScanResult"] = scanResultSchema()

	doc.Paths = openapi3.NewPaths()

	addAuthPaths(doc)
	addEmployeePaths(doc)
	addVerifyPaths(doc)
	addSystemPaths(doc)

	return doc
}

func addAuthPaths(doc *openapi3.T) {
	loginBody := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"email", "password"},
			Properties: openapi3.Schemas{
				"email":    &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("email")},
				"password": &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
			},
		},
	}
	sessionSchema := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"token": &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"admin": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"id":    &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()},
							"email": &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("email")},
							"name":  &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
						},
					},
				},
			},
		},
	}

	doc.Paths.Set("/api/v1/auth/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "login",
			Summary:     "Sign in with email and password",
			Tags:        []string{"auth"},
			RequestBody: jsonRequestBody(loginBody, true),
			Responses:   newResponses("200", "Session created", sessionSchema),
		},
		Delete: &openapi3.Operation{
			OperationID: "logout",
			Summary:     "End the current session",
			Tags:        []string{"auth"},
			Security:    authRequirement(),
			Responses:   newResponses("204", "Session ended", nil),
		},
	})
	doc.Paths.Set("/api/v1/auth/me", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "currentAdmin",
			Summary:     "Return the authenticated admin account",
			Tags:        []string{"auth"},
			Security:    authRequirement(),
			Responses:   newResponses("200", "Authenticated admin", sessionSchema),
		},
	})

	setupBody := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"email", "password", "name"},
			Properties: openapi3.Schemas{
				"email":    &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("email")},
				"password": &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithMinLength(8)},
				"name":     &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
			},
		},
	}
	doc.Paths.Set("/api/v1/setup", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "setup",
			Summary:     "Create the first admin account",
			Description: "Only succeeds while no admin account exists; afterwards the endpoint returns 409.",
			Tags:        []string{"auth"},
			RequestBody: jsonRequestBody(setupBody, true),
			Responses:   newResponses("201", "Admin account created", sessionSchema),
		},
	})
}

func addEmployeePaths(doc *openapi3.T) {
	employeeRef := openapi3.NewSchemaRef("#/components/schemas/Employee", nil)
	inputRef := openapi3.NewSchemaRef("#/components/schemas/EmployeeInput", nil)

	listSchema := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"resource": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: employeeRef,
					},
				},
				"meta": metaSchema(),
			},
		},
	}

	doc.Paths.Set("/api/v1/employees", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listEmployees",
			Summary:     "List all employees",
			Tags:        []string{"employees"},
			Security:    authRequirement(),
			Responses:   newResponses("200", "Employee list", listSchema),
		},
		Post: &openapi3.Operation{
			OperationID: "createEmployee",
			Summary:     "Add an employee",
			Description: "Accepts JSON or multipart/form-data; the multipart form may include a photo file.",
			Tags:        []string{"employees"},
			Security:    authRequirement(),
			RequestBody: jsonRequestBody(inputRef, true),
			Responses:   newResponses("201", "Employee created", employeeRef),
		},
	})

	idParam := &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").
			WithDescription("Internal employee record ID.").
			WithSchema(openapi3.NewInt64Schema()),
	}

	doc.Paths.Set("/api/v1/employees/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			OperationID: "getEmployee",
			Summary:     "Fetch one employee",
			Tags:        []string{"employees"},
			Security:    authRequirement(),
			Responses:   newResponses("200", "Employee", employeeRef),
		},
		Patch: &openapi3.Operation{
			OperationID: "updateEmployee",
			Summary:     "Update an employee",
			Description: "Partial update. Suspending or deactivating an employee triggers an admin notification email.",
			Tags:        []string{"employees"},
			Security:    authRequirement(),
			RequestBody: jsonRequestBody(inputRef, true),
			Responses:   newResponses("200", "Updated employee", employeeRef),
		},
		Delete: &openapi3.Operation{
			OperationID: "deleteEmployee",
			Summary:     "Remove an employee and their history",
			Tags:        []string{"employees"},
			Security:    authRequirement(),
			Responses:   newResponses("204", "Employee deleted", nil),
		},
	})

	qrURLSchema := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"employee_id": &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"url":         &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("uri")},
			},
		},
	}
	doc.Paths.Set("/api/v1/employees/{id}/qr-url", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			OperationID: "employeeQRURL",
			Summary:     "Return the public verification URL encoded in the employee's QR code",
			Tags:        []string{"employees"},
			Security:    authRequirement(),
			Responses:   newResponses("200", "Verification URL", qrURLSchema),
		},
	})
	doc.Paths.Set("/api/v1/employees/{id}/qr.png", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			OperationID: "employeeQRImage",
			Summary:     "Render the employee's verification QR code as PNG",
			Tags:        []string{"employees"},
			Security:    authRequirement(),
			Parameters: openapi3.Parameters{
				&openapi3.ParameterRef{
					Value: openapi3.NewQueryParameter("size").
						WithDescription("Image edge length in pixels, 128-1024.").
						WithSchema(openapi3.NewInt32Schema()),
				},
			},
			Responses: pngResponses(),
		},
	})
}

func addVerifyPaths(doc *openapi3.T) {
	resultRef := openapi3.NewSchemaRef("#/components/schemas/VerificationResult", nil)

	doc.Paths.Set("/api/v1/verify/{employeeId}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: openapi3.NewPathParameter("employeeId").
					WithDescription("Business employee identifier printed on the badge.").
					WithSchema(openapi3.NewStringSchema()),
			},
		},
		Get: &openapi3.Operation{
			OperationID: "verifyEmployee",
			Summary:     "Publicly verify an employee's status",
			Description: "No authentication required. Each call appends a verification audit record.",
			Tags:        []string{"verify"},
			Responses:   newResponses("200", "Verification result", resultRef),
		},
	})
}

func addSystemPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/v1/stats", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "stats",
			Summary:     "Dashboard counters",
			Tags:        []string{"system"},
			Security:    authRequirement(),
			Responses:   newResponses("200", "Counters", openapi3.NewSchemaRef("#/components/schemas/Stats", nil)),
		},
	})
	doc.Paths.Set("/api/v1/scan", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "runScan",
			Summary:     "Run the DBS expiry scan now",
			Description: "Bypasses the once-per-day gate but still applies the per-employee dedup window.",
			Tags:        []string{"system"},
			Security:    authRequirement(),
			Responses:   newResponses("200", "Scan result", openapi3.NewSchemaRef("#/components/schemas/ScanResult", nil)),
		},
	})

	testBody := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"to": &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("email")},
			},
		},
	}
	sentSchema := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"sent": &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
			},
		},
	}
	doc.Paths.Set("/api/v1/email/test", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "sendTestEmail",
			Summary:     "Send a test email through the configured SMTP relay",
			Tags:        []string{"system"},
			Security:    authRequirement(),
			RequestBody: jsonRequestBody(testBody, false),
			Responses:   newResponses("200", "Send outcome", sentSchema),
		},
	})
}

// ─── Component Schemas ──────────────────────────────────────────────────────

func errorResponseSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":       &openapi3.SchemaRef{Value: openapi3.NewInt32Schema()},
							"message":    &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
							"request_id": &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
						},
					},
				},
			},
		},
	}
}

func employeeSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":               &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()},
				"employee_id":      &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"full_name":        &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"email":            &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("email")},
				"position":         &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"photo_url":        &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"dbs_number":       &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"dbs_expiry_date":  &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("date-time").WithNullable()},
				"start_date":       &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("date-time")},
				"employment_type":  &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithEnum("permanent", "temporary")},
				"valid_until_date": &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("date-time").WithNullable()},
				"is_active":        &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
				"is_suspended":     &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
				"created_at":       &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("date-time")},
				"updated_at":       &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("date-time")},
			},
		},
	}
}

func employeeInputSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"employee_id", "full_name", "start_date", "employment_type"},
			Properties: openapi3.Schemas{
				"employee_id":      &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"full_name":        &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"email":            &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("email")},
				"position":         &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"photo_url":        &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"dbs_number":       &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"dbs_expiry_date":  &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("date-time")},
				"start_date":       &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("date-time")},
				"employment_type":  &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithEnum("permanent", "temporary")},
				"valid_until_date": &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("date-time")},
				"is_active":        &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
				"is_suspended":     &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
			},
		},
	}
}

func verificationResultSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"employee_id":  &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"full_name":    &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"position":     &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"photo_url":    &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"status":       &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithEnum("active", "suspended", "inactive", "clearance_expired")},
				"status_label": &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
				"verified_at":  &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("date-time")},
			},
		},
	}
}

func statsSchema() *openapi3.SchemaRef {
	counter := func() *openapi3.SchemaRef {
		return &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()}
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"active_employees":    counter(),
				"inactive_employees":  counter(),
				"suspended_employees": counter(),
				"total_employees":     counter(),
				"today_verifications": counter(),
			},
		},
	}
}

func scanResultSchema() *openapi3.SchemaRef {
	employeeList := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: openapi3.NewSchemaRef("#/components/schemas/Employee", nil),
		},
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"expiring":            employeeList,
				"expired":             employeeList,
				"expiring_email_sent": &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
				"expired_email_sent":  &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()},
			},
		},
	}
}

// ─── Builder Helpers ────────────────────────────────────────────────────────

func authRequirement() *openapi3.SecurityRequirements {
	reqs := openapi3.SecurityRequirements{
		{"bearerAuth": {}},
		{"cookieAuth": {}},
	}
	return &reqs
}

func jsonRequestBody(schema *openapi3.SchemaRef, required bool) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: required,
			Content:  openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

// newResponses builds a Responses map with one success response plus the
// standard error responses. A nil schema means a bodyless success.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	success := &openapi3.Response{Description: &successDesc}
	if schema != nil {
		success.Content = openapi3.NewContentWithJSONSchemaRef(schema)
	}
	responses.Set(statusCode, &openapi3.ResponseRef{Value: success})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for code, desc := range map[string]string{
		"400": "Bad request",
		"401": "Unauthorized",
		"404": "Not found",
		"500": "Internal server error",
	} {
		d := desc
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}

	return responses
}

func pngResponses() *openapi3.Responses {
	responses := openapi3.NewResponses()

	okDesc := "PNG image"
	responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &okDesc,
			Content: openapi3.Content{
				"image/png": openapi3.NewMediaType().WithSchema(openapi3.NewStringSchema().WithFormat("binary")),
			},
		},
	})

	notFoundDesc := "Not found"
	responses.Set("404", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &notFoundDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)),
		},
	})

	return responses
}

func metaSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"count": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:        &openapi3.Types{"integer"},
						Format:      "int64",
						Description: "Number of records in the resource array.",
					},
				},
			},
		},
	}
}
