package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func manual(id, content string) ServerMessage {
	return ServerMessage{Id: id, Role: RoleAssistant, Content: content, IsManual: true}
}

func bot(id, content string) ServerMessage {
	return ServerMessage{Id: id, Role: RoleAssistant, Content: content, IsManual: false}
}

func visitor(id, content string) ServerMessage {
	return ServerMessage{Id: id, Role: RoleUser, Content: content, IsManual: false}
}

func TestMergeImportsOnlyManualAssistantMessages(t *testing.T) {
	tr := New()
	r := NewReconciler()

	log := []ServerMessage{
		visitor("1", "hello"),
		bot("2", "hi, how can I help?"),
		manual("3", "agent here, let me check"),
	}

	appended := r.Merge(tr, log)
	assert.Equal(t, 1, appended)
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, "agent here, let me check", tr.Messages()[0].Content)
	assert.True(t, tr.Messages()[0].IsManual)
}

func TestCursorAlwaysAdvancesToLogLength(t *testing.T) {
	tr := New()
	r := NewReconciler()

	// Nothing importable, cursor still advances.
	log := []ServerMessage{
		visitor("1", "hello"),
		bot("2", "hi"),
	}
	appended := r.Merge(tr, log)
	assert.Equal(t, 0, appended)
	assert.Equal(t, 2, r.Cursor())

	// Filtered-out rows are never reconsidered.
	log = append(log, manual("3", "agent reply"))
	appended = r.Merge(tr, log)
	assert.Equal(t, 1, appended)
	assert.Equal(t, 3, r.Cursor())
}

func TestCursorIsMonotonic(t *testing.T) {
	tr := New()
	r := NewReconciler()

	log := []ServerMessage{visitor("1", "a"), manual("2", "b"), manual("3", "c")}
	r.Merge(tr, log)
	assert.Equal(t, 3, r.Cursor())

	// A shorter (stale) log observation must not move the cursor back.
	r.Merge(tr, log[:1])
	assert.Equal(t, 3, r.Cursor())
	assert.Equal(t, 2, tr.Len())
}

func TestOverlappingPollSlicesDeduplicate(t *testing.T) {
	tr := New()
	r := NewReconciler()

	first := []ServerMessage{
		visitor("1", "hello"),
		manual("2", "agent: checking now"),
	}
	r.Merge(tr, first)
	assert.Equal(t, 1, tr.Len())

	// Second tick redelivers the full log plus one new row. Only the
	// distinct new manual message lands.
	second := append(first, manual("3", "agent: found it"))
	appended := r.Merge(tr, second)
	assert.Equal(t, 1, appended)
	assert.Equal(t, 2, tr.Len())
}

func TestContentDuplicateIsDroppedOnce(t *testing.T) {
	tr := New()
	r := NewReconciler()

	// The same content was already rendered locally (e.g. optimistic path).
	tr.Append(RoleAssistant, "your order shipped yesterday")

	log := []ServerMessage{manual("1", "your order shipped yesterday")}
	appended := r.Merge(tr, log)
	assert.Equal(t, 0, appended)
	assert.Equal(t, 1, tr.Len())

	// And it is never reconsidered after the cursor moved past it.
	appended = r.Merge(tr, log)
	assert.Equal(t, 0, appended)
	assert.Equal(t, 1, tr.Len())
}

func TestBotRepliesNeverImportedViaPoll(t *testing.T) {
	tr := New()
	r := NewReconciler()

	// The bot reply arrived through the direct send response.
	tr.Append(RoleUser, "when do you open?")
	tr.Append(RoleAssistant, "we open at 9am")

	// The same exchange later appears in the server log. Even a differing
	// bot content (regenerated, edited) must not come back via polling.
	log := []ServerMessage{
		visitor("1", "when do you open?"),
		bot("2", "we open at 9am"),
		bot("3", "anything else?"),
	}
	appended := r.Merge(tr, log)
	assert.Equal(t, 0, appended)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 3, r.Cursor())
}

func TestResetZeroesCursor(t *testing.T) {
	tr := New()
	r := NewReconciler()

	r.Merge(tr, []ServerMessage{manual("1", "x")})
	assert.Equal(t, 1, r.Cursor())

	r.Reset()
	assert.Equal(t, 0, r.Cursor())
}

func TestEmptyLogIsNoOp(t *testing.T) {
	tr := New()
	r := NewReconciler()

	appended := r.Merge(tr, nil)
	assert.Equal(t, 0, appended)
	assert.Equal(t, 0, r.Cursor())
}
