package transcript

// ServerMessage is one row of the authoritative server log as seen by the
// poll path.
type ServerMessage struct {
	Id       string `json:"id"`
	Role     string `json:"role"`
	Content  string `json:"content"`
	IsManual bool   `json:"is_manual"`
}

// Reconciler merges the polled server log into the local transcript. The
// cursor tracks how much of the log has been considered, not how much was
// imported: it always advances to the full log length, so every message is
// considered exactly once and the poll loop does bounded work per tick.
type Reconciler struct {
	cursor int
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

func (r *Reconciler) Cursor() int {
	return r.cursor
}

// Reset zeroes the cursor. Used on session rotation only.
func (r *Reconciler) Reset() {
	r.cursor = 0
}

// Merge imports new manual agent messages from serverLog into t and returns
// how many were appended.
//
// Only agent-authored (manual) assistant messages are imported: bot replies
// already reached the transcript through the send response, and the visitor's
// own messages are there optimistically. Surviving candidates are then
// content-deduplicated against the whole transcript, which is the last line
// of defense if the same content is ever delivered twice.
func (r *Reconciler) Merge(t *Transcript, serverLog []ServerMessage) int {
	if len(serverLog) <= r.cursor {
		return 0
	}

	candidates := serverLog[r.cursor:]
	appended := 0
	for _, candidate := range candidates {
		if candidate.Role != RoleAssistant || !candidate.IsManual {
			continue
		}
		if t.ContainsContent(candidate.Content) {
			continue
		}
		t.AppendManual(candidate.Content)
		appended++
	}

	// Unconditional: filtered-out messages are never reconsidered.
	r.cursor = len(serverLog)
	return appended
}
