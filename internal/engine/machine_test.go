package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

// seeded returns a core with Alice (subject), Bob, Carol and Dave registered.
func seeded(t *testing.T) *engine.Core {
	t.Helper()
	core, _ := newCore(t, feb20)
	register(t, core, 111, "Alice", "2010-03-01")
	register(t, core, 222, "Bob", "2001-09-09")
	register(t, core, 333, "Carol", "1999-12-24")
	register(t, core, 444, "Dave", "")
	return core
}

// collecting drives a seeded core to AwaitingContributions for subject 111.
func collecting(t *testing.T) *engine.Core {
	t.Helper()
	core := seeded(t)
	_, err := core.Session.Start(111)
	require.NoError(t, err)
	_, err = core.Session.SubmitText("book")
	require.NoError(t, err)
	_, err = core.Session.SubmitText("5000")
	require.NoError(t, err)
	_, err = core.Session.ConfirmBroadcast()
	require.NoError(t, err)
	return core
}

func acknowledge(t *testing.T, core *engine.Core, id int64) {
	t.Helper()
	_, err := core.Session.RequestContribution(id)
	require.NoError(t, err)
	res, err := core.Session.ResolveContribution(id, true)
	require.NoError(t, err)
	require.True(t, res.Added)
}

func TestMachine_AnnouncementScenario(t *testing.T) {
	core := seeded(t)

	s, err := core.Session.Start(111)
	require.NoError(t, err)
	assert.Equal(t, engine.StateAwaitingGift, s.State)
	assert.Empty(t, s.Contributors)
	assert.Empty(t, s.GiftDetails)
	assert.Empty(t, s.ContributionAmount)

	state, err := core.Session.SubmitText("book")
	require.NoError(t, err)
	assert.Equal(t, engine.StateAwaitingAmount, state)

	state, err = core.Session.SubmitText("5000")
	require.NoError(t, err)
	assert.Equal(t, engine.StateReadyToPreview, state)

	ann, err := core.Session.Announcement()
	require.NoError(t, err)
	assert.Equal(t, 10, ann.DaysLeft)
	assert.Equal(t, "Alice", ann.Name)
	assert.Equal(t, "book", ann.Gift)
	assert.Equal(t, "5000", ann.Amount)

	d, err := core.Session.ConfirmBroadcast()
	require.NoError(t, err)
	assert.Equal(t, []int64{222, 333, 444}, d.Recipients, "Everyone but the subject, in roster order")
	assert.Equal(t, engine.StateAwaitingContributions, core.Session.State())

	active, _ := core.Session.Active()
	assert.True(t, active.Announced())
}

func TestMachine_SingleActiveSession(t *testing.T) {
	core := seeded(t)
	_, err := core.Session.Start(111)
	require.NoError(t, err)

	_, err = core.Session.Start(222)

	assert.ErrorIs(t, err, engine.ErrSessionActive)
	s, _ := core.Session.Active()
	assert.Equal(t, int64(111), s.SubjectID, "The running session is untouched")
}

func TestMachine_StartRejections(t *testing.T) {
	core := seeded(t)

	_, err := core.Session.Start(999)
	assert.ErrorIs(t, err, engine.ErrInvalidSelection)

	_, err = core.Session.Start(444)
	assert.ErrorIs(t, err, engine.ErrBirthdayUnknown)

	assert.Equal(t, engine.StateNone, core.Session.State())
}

func TestMachine_NoActiveSession(t *testing.T) {
	core := seeded(t)

	_, err := core.Session.SubmitText("book")
	assert.ErrorIs(t, err, engine.ErrNoActiveSession)
	_, err = core.Session.ConfirmBroadcast()
	assert.ErrorIs(t, err, engine.ErrNoActiveSession)
	_, err = core.Session.RequestContribution(222)
	assert.ErrorIs(t, err, engine.ErrNoActiveSession)
	_, err = core.Session.ResolveContribution(222, true)
	assert.ErrorIs(t, err, engine.ErrNoActiveSession)
	_, err = core.Session.RequestReminder()
	assert.ErrorIs(t, err, engine.ErrNoActiveSession)
	_, err = core.Session.RequestEnd()
	assert.ErrorIs(t, err, engine.ErrNoActiveSession)
	_, err = core.Session.Status()
	assert.ErrorIs(t, err, engine.ErrNoActiveSession)
}

func TestMachine_TextInput(t *testing.T) {
	core := seeded(t)
	_, err := core.Session.Start(111)
	require.NoError(t, err)

	state, err := core.Session.SubmitText("   ")
	assert.ErrorIs(t, err, engine.ErrEmptyInput)
	assert.Equal(t, engine.StateAwaitingGift, state)

	_, err = core.Session.Announcement()
	assert.ErrorIs(t, err, engine.ErrStaleAction, "No preview before the amount is known")

	_, err = core.Session.ConfirmBroadcast()
	assert.ErrorIs(t, err, engine.ErrStaleAction)

	_, err = core.Session.SubmitText("  flowers ")
	require.NoError(t, err)
	_, err = core.Session.SubmitText("1000")
	require.NoError(t, err)

	_, err = core.Session.SubmitText("more chatter")
	assert.ErrorIs(t, err, engine.ErrUnexpectedInput)

	s, _ := core.Session.Active()
	assert.Equal(t, "flowers", s.GiftDetails)
	assert.Equal(t, "1000", s.ContributionAmount)
}

func TestMachine_ContributionConfirmFlow(t *testing.T) {
	core := collecting(t)

	candidates, err := core.Session.Candidates()
	require.NoError(t, err)
	assert.Len(t, candidates, 3)

	p, err := core.Session.RequestContribution(222)
	require.NoError(t, err)
	assert.Equal(t, "Bob", p.Name)
	require.NoError(t, core.Session.RecordPrompt(77))

	s, _ := core.Session.Active()
	require.NotNil(t, s.Pending)
	assert.Equal(t, engine.PendingConfirmation{ParticipantID: 222, PromptRef: 77}, *s.Pending)

	res, err := core.Session.ResolveContribution(222, true)
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Equal(t, 77, res.PromptRef)

	// A second "yes" for the same participant does not duplicate.
	res, err = core.Session.ResolveContribution(222, true)
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Zero(t, res.PromptRef)

	s, _ = core.Session.Active()
	assert.Equal(t, []int64{222}, s.Contributors)
	assert.Nil(t, s.Pending)

	_, err = core.Session.RequestContribution(222)
	assert.ErrorIs(t, err, engine.ErrInvalidSelection, "Contributors are no longer candidates")
}

func TestMachine_ContributionDeclined(t *testing.T) {
	core := collecting(t)
	_, err := core.Session.RequestContribution(333)
	require.NoError(t, err)
	require.NoError(t, core.Session.RecordPrompt(5))

	res, err := core.Session.ResolveContribution(333, false)

	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Equal(t, 5, res.PromptRef, "The prompt is retracted on 'no' too")
	s, _ := core.Session.Active()
	assert.Empty(t, s.Contributors)
	assert.Nil(t, s.Pending)
}

func TestMachine_SubjectNeverContributes(t *testing.T) {
	core := collecting(t)

	_, err := core.Session.RequestContribution(111)
	assert.ErrorIs(t, err, engine.ErrInvalidSelection)

	_, err = core.Session.ResolveContribution(111, true)
	assert.ErrorIs(t, err, engine.ErrInvalidSelection)

	_, err = core.Session.RequestContribution(999)
	assert.ErrorIs(t, err, engine.ErrInvalidSelection)

	s, _ := core.Session.Active()
	assert.NotContains(t, s.Contributors, s.SubjectID)
}

func TestMachine_ContributionBeforeBroadcastIsStale(t *testing.T) {
	core := seeded(t)
	_, err := core.Session.Start(111)
	require.NoError(t, err)

	_, err = core.Session.RequestContribution(222)
	assert.ErrorIs(t, err, engine.ErrStaleAction)
	_, err = core.Session.ResolveContribution(222, true)
	assert.ErrorIs(t, err, engine.ErrStaleAction)
}

func TestMachine_ReminderCycle(t *testing.T) {
	core := collecting(t)
	acknowledge(t, core, 222)

	d, err := core.Session.RequestReminder()
	require.NoError(t, err)
	assert.Equal(t, engine.StateReminderPreview, core.Session.State())
	assert.Equal(t, []int64{333, 444}, d.Recipients)
	assert.Equal(t, 10, d.DaysLeft)

	d, err = core.Session.ConfirmReminder()
	require.NoError(t, err)
	assert.Equal(t, []int64{333, 444}, d.Recipients, "Only non-contributing, non-subject participants")
	assert.Equal(t, engine.StateAwaitingContributions, core.Session.State())

	_, err = core.Session.ConfirmReminder()
	assert.ErrorIs(t, err, engine.ErrStaleAction, "Confirm without a preview is stale")
}

func TestMachine_ReminderBack(t *testing.T) {
	core := collecting(t)
	_, err := core.Session.RequestReminder()
	require.NoError(t, err)

	state, err := core.Session.Back()

	require.NoError(t, err)
	assert.Equal(t, engine.StateAwaitingContributions, state)
}

func TestMachine_ReminderWhenEveryoneContributed(t *testing.T) {
	core := collecting(t)
	for _, id := range []int64{222, 333, 444} {
		acknowledge(t, core, id)
	}

	_, err := core.Session.RequestReminder()

	assert.ErrorIs(t, err, engine.ErrAllContributed)
	assert.Equal(t, engine.StateAwaitingContributions, core.Session.State())
}

func TestMachine_EndSession(t *testing.T) {
	core := collecting(t)
	acknowledge(t, core, 333)
	before := len(core.Session.Completed())

	_, err := core.Session.ConfirmEnd(true)
	assert.ErrorIs(t, err, engine.ErrStaleAction, "Ending requires the two-step confirmation")

	_, err = core.Session.RequestEnd()
	require.NoError(t, err)
	assert.Equal(t, engine.StateEndingConfirm, core.Session.State())

	record, err := core.Session.ConfirmEnd(true)
	require.NoError(t, err)

	assert.Equal(t, "Alice", record.Name)
	assert.Equal(t, engine.Date{Year: 2010, Month: time.March, Day: 1}, record.Birthday)
	assert.Equal(t, []int64{333}, record.Contributors)
	assert.Equal(t, []int64{222, 444}, record.NonContributors)
	assert.Equal(t, feb20, record.ClosedAt)

	assert.Equal(t, engine.StateNone, core.Session.State())
	assert.Len(t, core.Session.Completed(), before+1)

	_, err = core.Session.Start(222)
	assert.NoError(t, err, "A new session can start once the previous one is archived")
}

func TestMachine_EndDeclinedReturnsToPreviousState(t *testing.T) {
	core := collecting(t)
	_, err := core.Session.RequestEnd()
	require.NoError(t, err)

	_, err = core.Session.ConfirmEnd(false)
	require.NoError(t, err)
	assert.Equal(t, engine.StateAwaitingContributions, core.Session.State())
	assert.Empty(t, core.Session.Completed())

	// Abandoning before the broadcast resumes the input step.
	core2 := seeded(t)
	_, err = core2.Session.Start(111)
	require.NoError(t, err)
	_, err = core2.Session.RequestEnd()
	require.NoError(t, err)
	state, err := core2.Session.Back()
	require.NoError(t, err)
	assert.Equal(t, engine.StateAwaitingGift, state)
}

func TestMachine_Status(t *testing.T) {
	core := collecting(t)
	acknowledge(t, core, 444)

	st, err := core.Session.Status()
	require.NoError(t, err)

	require.Len(t, st.Rows, 3)
	assert.Equal(t, "Bob", st.Rows[0].Participant.Name)
	assert.False(t, st.Rows[0].Contributed)
	assert.Equal(t, "Dave", st.Rows[2].Participant.Name)
	assert.True(t, st.Rows[2].Contributed)
	assert.Equal(t, "Alice", st.Session.SubjectName)
}

// TestMachine_SnapshotIsImmutable checks that the subject snapshot and returned
// copies are detached from later changes.
func TestMachine_SnapshotIsImmutable(t *testing.T) {
	core := collecting(t)
	s, _ := core.Session.Active()
	s.Contributors = append(s.Contributors, 111)
	s.SubjectName = "Mallory"

	fresh, _ := core.Session.Active()
	assert.Empty(t, fresh.Contributors)
	assert.Equal(t, "Alice", fresh.SubjectName)
}
