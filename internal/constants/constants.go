package constants

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyCaller    = "caller"
	ContextKeyProject   = "project"
	ContextKeyMember    = "project_member"
	ContextKeyTask      = "task"
	ContextKeyRequestID = "request_id"
	SessionCookieName   = "project_session"
	RequestIDHeader     = "X-Request-ID"
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxNameLength     = 255
	MaxTitleLength    = 255
)

// DateLayout is the wire format of task due dates
const DateLayout = "2006-01-02"

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Fixed response messages
const (
	MessageAdminOnly        = "Unauthorized. Admin access only."
	MessageNotProjectMember = "User is not part of this project."
)
