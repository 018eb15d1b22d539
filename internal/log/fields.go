package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTemplate      = "template"

	FieldReport = "report"
	FieldSince  = "since"
	FieldRows   = "rows"

	FieldSource   = "source"
	FieldFile     = "file"
	FieldRow      = "row"
	FieldBatch    = "batch"
	FieldImported = "imported"
	FieldReplace  = "replace"
	FieldSkipped  = "skipped"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentReports  = "reports"
	ComponentStorage  = "storage"
	ComponentImporter = "importer"
	ComponentSource   = "source"
	ComponentSecurity = "security"
	ComponentTrace    = "trace"
	ComponentTemplate = "template"
)

// Operations defines standard operation names
const (
	OpList     = "list"
	OpQuery    = "query"
	OpImport   = "import"
	OpTruncate = "truncate"
	OpParse    = "parse"
	OpRender   = "render"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithReport adds the report name and its month lower bound.
func (f LogFields) WithReport(report, since string) LogFields {
	f[FieldReport] = report
	if since != "" {
		f[FieldSince] = since
	}
	return f
}

// WithImport adds loader progress fields.
func (f LogFields) WithImport(source string, batch, imported int) LogFields {
	f[FieldSource] = source
	f[FieldBatch] = batch
	f[FieldImported] = imported
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
