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
	// ============================================
	// Runtime Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Unknown signal id",
		Detail:   "The signal id does not address a live signal. It was never created or has been destroyed with its owning scope.",
		DocURL:   "https://lumen.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Unknown scope id",
		Detail:   "The scope id does not address a live scope. Its parent may already have been disposed.",
		DocURL:   "https://lumen.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryRuntime,
		Message:  "Memo cycle detected",
		Detail:   "A memo read its own value while recomputing. Memo computations must not depend on themselves.",
		DocURL:   "https://lumen.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryRuntime,
		Message:  "Unknown effect id",
		Detail:   "The effect id does not address a live effect.",
		DocURL:   "https://lumen.dev/docs/errors/E004",
	},
	"E005": {
		Category: CategoryRuntime,
		Message:  "Signal type mismatch",
		Detail:   "The signal holds a value of a different kind than the accessor expects.",
		DocURL:   "https://lumen.dev/docs/errors/E005",
	},
	"E006": {
		Category: CategoryRuntime,
		Message:  "Unknown memo id",
		Detail:   "The memo id does not address a live memo.",
		DocURL:   "https://lumen.dev/docs/errors/E006",
	},

	// ============================================
	// Render Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryRender,
		Message:  "Template not registered",
		Detail:   "The template id does not match any registered template. Templates must be registered before the first rebuild.",
		DocURL:   "https://lumen.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryRender,
		Message:  "Dynamic slot count mismatch",
		Detail:   "The dynamic node and attribute values passed to a template reference must match the counts declared at registration.",
		DocURL:   "https://lumen.dev/docs/errors/E021",
	},
	"E022": {
		Category: CategoryRender,
		Message:  "Element id double free",
		Detail:   "An element id was released twice. Ids may only be released once after their element is removed.",
		DocURL:   "https://lumen.dev/docs/errors/E022",
	},
	"E023": {
		Category: CategoryRender,
		Message:  "Node not mounted",
		Detail:   "The vnode has no mount state. Only nodes produced by a create pass can be diffed or unmounted.",
		DocURL:   "https://lumen.dev/docs/errors/E023",
	},
	"E024": {
		Category: CategoryRender,
		Message:  "Unknown vnode id",
		Detail:   "The vnode id does not address a live node in the store.",
		DocURL:   "https://lumen.dev/docs/errors/E024",
	},

	// ============================================
	// Protocol Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryProtocol,
		Message:  "Mutation buffer full",
		Detail:   "The mutation stream did not fit in the output buffer. The frame is invalid and must be discarded.",
		DocURL:   "https://lumen.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryProtocol,
		Message:  "Unknown opcode",
		Detail:   "The mutation stream contains an opcode the interpreter does not recognize.",
		DocURL:   "https://lumen.dev/docs/errors/E041",
	},
	"E042": {
		Category: CategoryProtocol,
		Message:  "Truncated mutation stream",
		Detail:   "The mutation stream ended in the middle of an operation.",
		DocURL:   "https://lumen.dev/docs/errors/E042",
	},
	"E043": {
		Category: CategoryProtocol,
		Message:  "Interpreter stack underflow",
		Detail:   "An operation popped more nodes than the stack holds. The stream was produced against a different tree state.",
		DocURL:   "https://lumen.dev/docs/errors/E043",
	},
	"E044": {
		Category: CategoryProtocol,
		Message:  "Path resolution failed",
		Detail:   "A child-index path walked off the tree. The template structure and the stream disagree.",
		DocURL:   "https://lumen.dev/docs/errors/E044",
	},
	"E045": {
		Category: CategoryProtocol,
		Message:  "Unknown element id",
		Detail:   "The element id in the stream is not bound in the interpreter's id table.",
		DocURL:   "https://lumen.dev/docs/errors/E045",
	},

	// ============================================
	// Event Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryEvents,
		Message:  "Handler not found",
		Detail:   "The event handler id is not registered. The element may have been unmounted since the event was captured.",
		DocURL:   "https://lumen.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryEvents,
		Message:  "Unknown action kind",
		Detail:   "The handler's action kind is not in the supported set.",
		DocURL:   "https://lumen.dev/docs/errors/E061",
	},
	"E062": {
		Category: CategoryEvents,
		Message:  "Action target mismatch",
		Detail:   "The action's target signal holds a value kind the action cannot operate on.",
		DocURL:   "https://lumen.dev/docs/errors/E062",
	},

	// ============================================
	// App Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryApp,
		Message:  "Unknown app handle",
		Detail:   "The app handle does not address a live shell. It was never created or has been destroyed.",
		DocURL:   "https://lumen.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategoryApp,
		Message:  "Shell already destroyed",
		Detail:   "The shell has been destroyed. No further operations are permitted on it.",
		DocURL:   "https://lumen.dev/docs/errors/E081",
	},
	"E082": {
		Category: CategoryApp,
		Message:  "Rebuild before mount",
		Detail:   "Flush was called before the initial rebuild produced a mounted tree.",
		DocURL:   "https://lumen.dev/docs/errors/E082",
	},

	// ============================================
	// Configuration Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The configured listen address could not be parsed or bound.",
		DocURL:   "https://lumen.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid event frame",
		Detail:   "A client event frame could not be decoded.",
		DocURL:   "https://lumen.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Session closed",
		Detail:   "The websocket session has been closed and can no longer accept frames.",
		DocURL:   "https://lumen.dev/docs/errors/E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Archive upload failed",
		Detail:   "The session frame history could not be uploaded to the archive store.",
		DocURL:   "https://lumen.dev/docs/errors/E103",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
