package tracing

// TracerName is the instrumentation scope used by the register package.
const TracerName = "github.com/zjrosen/paneron/internal/register"

// Span names.
const (
	SpanOpen = "register.open"
	SpanSave = "register.save"
	SpanSync = "register.sync"
)

// Span attribute keys.
const (
	AttrEntityKind    = "entity.kind"
	AttrEntityPath    = "entity.path"
	AttrHasRemote     = "git.has_remote"
	AttrRemoteName    = "git.remote"
	AttrBranch        = "git.branch"
	AttrUpdate        = "git.update"
	AttrCommitHash    = "git.commit"
	AttrPendingAction = "git.pending_action"
)

// Span events.
const (
	EventPulled = "git.pulled"
	EventPushed = "git.pushed"
)
