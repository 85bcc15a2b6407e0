package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Runtime errors (E001-E039)

	"E001": {
		Category: CategoryRuntime,
		Message:  "Tracking frame imbalance",
		Detail:   "StopTracking was called without a matching StartTracking, or ResumeTracking without a matching PauseTracking. The dependency graph cannot be trusted after this point.",
		DocURL:   "https://effuse.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Cleanup registered outside a reactive scope",
		Detail:   "OnCleanup must be called inside an effect body or with an owner in scope.",
		DocURL:   "https://effuse.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryRuntime,
		Message:  "Owner disposed",
		Detail:   "The owner scope has been disposed. This usually means reactive state is being touched from a blueprint that has been unmounted.",
		DocURL:   "https://effuse.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryRuntime,
		Message:  "Render failed",
		Detail:   "A panic escaped a view function with no error boundary above it. The render pass was aborted.",
		DocURL:   "https://effuse.dev/docs/errors/E004",
	},

	// Validation errors (E040-E059)

	"E040": {
		Category: CategoryValidation,
		Message:  "Missing required prop",
		Detail:   "A blueprint was instantiated without a prop its definition marks required.",
		DocURL:   "https://effuse.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryValidation,
		Message:  "Prop validation failed",
		Detail:   "A prop value was rejected by the blueprint definition's validator.",
		DocURL:   "https://effuse.dev/docs/errors/E041",
	},
	"E042": {
		Category: CategoryValidation,
		Message:  "Blueprint has no view",
		Detail:   "Every component definition must supply a View function.",
		DocURL:   "https://effuse.dev/docs/errors/E042",
	},

	// Protocol errors (E060-E079)

	"E060": {
		Category: CategoryProtocol,
		Message:  "Malformed client event",
		Detail:   "The websocket frame could not be decoded as a client event.",
		DocURL:   "https://effuse.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Unknown target node",
		Detail:   "The client event referenced a node ID the session's document does not contain. The tree may have changed since the client's last frame.",
		DocURL:   "https://effuse.dev/docs/errors/E061",
	},
	"E062": {
		Category: CategoryProtocol,
		Message:  "Session not found",
		Detail:   "The session ID is invalid or the session has been closed.",
		DocURL:   "https://effuse.dev/docs/errors/E062",
	},

	// Persistence errors (E080-E099)

	"E080": {
		Category: CategoryPersist,
		Message:  "Snapshot save failed",
		Detail:   "A persistable signal could not be written to the store.",
		DocURL:   "https://effuse.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategoryPersist,
		Message:  "Snapshot load failed",
		Detail:   "A stored snapshot could not be decoded into the signal's type.",
		DocURL:   "https://effuse.dev/docs/errors/E081",
	},

	// CLI errors (E100-E119)

	"E100": {
		Category: CategoryCLI,
		Message:  "Invalid bench parameters",
		Detail:   "Grid dimensions and iteration counts must be positive.",
		DocURL:   "https://effuse.dev/docs/errors/E100",
	},
}

// Register adds a template for a code at runtime. Intended for embedding
// applications that extend the error space; core codes must not be
// overwritten.
func Register(code string, template ErrorTemplate) bool {
	if _, exists := registry[code]; exists {
		return false
	}
	registry[code] = template
	return true
}
