package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Subject
	FieldUserID = "user_id"
	FieldEmail  = "email"

	// Avatar
	FieldContentHash = "content_hash"
	FieldBlobKey     = "blob_key"
	FieldURL         = "url"

	// Messaging
	FieldTopic = "topic"

	// Service
	FieldService   = "service"
	FieldComponent = "component"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
