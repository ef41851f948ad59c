package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldDonationID  = "donation_id"
	FieldDonorID     = "donor_id"
	FieldProjectID   = "project_id"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldEventKind   = "event_kind"
	FieldEventID     = "event_id"
	FieldSheetsRef   = "sheets_ref"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentDonation  = "donation"
	ComponentDashboard = "dashboard"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSimulator = "simulator"
	ComponentSheets    = "sheets"
	ComponentAI        = "ai"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpList     = "list"
	OpAppend   = "append"
	OpExport   = "export"
	OpPublish  = "publish"
	OpGenerate = "generate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields is a small builder for slog key/value pairs.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

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

// WithDonation adds the identifying fields of a donation. Anonymous gifts
// are logged without a donor id.
func (f LogFields) WithDonation(id, donorID, projectID string, amountCents int64) LogFields {
	f[FieldDonationID] = id
	if donorID != "" {
		f[FieldDonorID] = donorID
	}
	f[FieldProjectID] = projectID
	f[FieldAmountCents] = amountCents
	return f
}

func (f LogFields) WithProject(projectID, category string) LogFields {
	f[FieldProjectID] = projectID
	if category != "" {
		f[FieldCategory] = category
	}
	return f
}

func (f LogFields) WithEvent(kind, id string) LogFields {
	f[FieldEventKind] = kind
	f[FieldEventID] = id
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields for slog's variadic API.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
