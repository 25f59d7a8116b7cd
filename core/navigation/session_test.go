package navigation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mevellea/telegram-menu/core/menu"
)

type fakeTransport struct {
	mu     sync.Mutex
	nextID int

	sends    int
	edits    int
	deletes  int
	answers  int
	photos   int
	stickers int
	polls    int
	actions  int

	deletedIDs     []int
	lastSendText   string
	lastAnswerText string
	lastMarkup     *menu.Markup

	failSend bool
	editErr  error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 100}
}

func (f *fakeTransport) SendMessage(_ context.Context, _ int64, text string, mk *menu.Markup, _ bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return FailedSendID, ErrMessageGone
	}
	f.sends++
	f.lastSendText = text
	f.lastMarkup = mk
	f.nextID++
	return f.nextID, nil
}

func (f *fakeTransport) EditMessageText(_ context.Context, _ int64, _ int, _ string, _ *menu.Markup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	return f.editErr
}

func (f *fakeTransport) EditMessageCaption(_ context.Context, _ int64, _ int, _ string, _ *menu.Markup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	return f.editErr
}

func (f *fakeTransport) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	f.deletedIDs = append(f.deletedIDs, messageID)
	return nil
}

func (f *fakeTransport) SendPhoto(_ context.Context, _ int64, _, _ string, _ *menu.Markup, _ bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos++
	f.nextID++
	return f.nextID, nil
}

func (f *fakeTransport) SendSticker(_ context.Context, _ int64, _ string, _ bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stickers++
	f.nextID++
	return f.nextID, nil
}

func (f *fakeTransport) SendPoll(_ context.Context, _ int64, _ string, _ []string, _ time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	f.nextID++
	return f.nextID, nil
}

func (f *fakeTransport) AnswerCallback(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers++
	f.lastAnswerText = text
	return nil
}

func (f *fakeTransport) SendChatAction(_ context.Context, _ int64, _ ChatAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions++
	return nil
}

type fakeScheduler struct {
	mu   sync.Mutex
	jobs map[string]func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: make(map[string]func())}
}

func (f *fakeScheduler) AddInterval(_ time.Duration, jobID string, fn func(), _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[jobID] = fn
	return nil
}

func (f *fakeScheduler) AddOneShot(_ time.Duration, jobID string, fn func(), _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[jobID] = fn
	return nil
}

func (f *fakeScheduler) Cancel(jobID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, jobID)
}

func (f *fakeScheduler) HasJob(jobID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.jobs[jobID]
	return ok
}

// Fire runs a pending one-shot the way its deadline would.
func (f *fakeScheduler) Fire(jobID string) bool {
	f.mu.Lock()
	fn, ok := f.jobs[jobID]
	delete(f.jobs, jobID)
	f.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func mustMenu(t *testing.T, label, content string) *menu.Message {
	t.Helper()
	m, err := menu.NewMenu(label, func() string { return content })
	if err != nil {
		t.Fatalf("new menu %s: %v", label, err)
	}
	return m
}

func mustApp(t *testing.T, label string, content func() string) *menu.Message {
	t.Helper()
	m, err := menu.NewApp(label, content)
	if err != nil {
		t.Fatalf("new app %s: %v", label, err)
	}
	return m
}

func startedSession(t *testing.T, root *menu.Message, tr Transport, sched Scheduler, clock *fakeClock) *Session {
	t.Helper()
	s, err := NewSession(7, tr, sched, Options{Now: clock.Now})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.Start(context.Background(), root); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func TestBackAtRootIsNoOp(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	rootID := root.MessageID()
	if rootID == FailedSendID {
		t.Fatal("root send failed")
	}
	before := tr.sends
	if got := s.SelectMenuButton(context.Background(), menu.LabelBack); got != rootID {
		t.Fatalf("Back at root = %d, want %d", got, rootID)
	}
	if tr.sends != before {
		t.Fatalf("Back at root issued %d sends", tr.sends-before)
	}
	if s.StackDepth() != 1 {
		t.Fatalf("depth = %d, want 1", s.StackDepth())
	}
}

func TestBackFromSubMenu(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	second := mustMenu(t, "second", "second screen")
	if err := root.AddButton("Second menu", menu.Navigate(second)); err != nil {
		t.Fatalf("add: %v", err)
	}
	s := startedSession(t, root, tr, sched, clock)

	if id := s.SelectMenuButton(context.Background(), "Second menu"); id == FailedSendID {
		t.Fatal("second menu send failed")
	}
	if s.StackDepth() != 2 {
		t.Fatalf("depth = %d, want 2", s.StackDepth())
	}

	before := tr.sends
	id := s.SelectMenuButton(context.Background(), menu.LabelBack)
	if s.StackDepth() != 1 {
		t.Fatalf("depth after Back = %d, want 1", s.StackDepth())
	}
	if id != root.MessageID() {
		t.Fatalf("Back returned %d, want root id %d", id, root.MessageID())
	}
	if tr.sends-before != 1 {
		t.Fatalf("Back issued %d sends, want 1 re-render", tr.sends-before)
	}
}

func TestGotoHomeCollapses(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	s.GotoMenu(context.Background(), mustMenu(t, "a", "a"))
	s.GotoMenu(context.Background(), mustMenu(t, "b", "b"))
	if s.StackDepth() != 3 {
		t.Fatalf("depth = %d, want 3", s.StackDepth())
	}

	id := s.GotoHome(context.Background())
	if s.StackDepth() != 1 {
		t.Fatalf("depth after home = %d, want 1", s.StackDepth())
	}
	if id != root.MessageID() {
		t.Fatalf("home id = %d, want %d", id, root.MessageID())
	}

	before := tr.sends
	again := s.GotoHome(context.Background())
	if again != id || tr.sends != before {
		t.Fatalf("repeated home: id %d (want %d), extra sends %d", again, id, tr.sends-before)
	}
}

func TestEditIdempotence(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	content := "uptime 1s"
	app := mustApp(t, "status", func() string { return content })
	if id := s.SendAppMessage(context.Background(), app, ""); id == FailedSendID {
		t.Fatal("app send failed")
	}

	if s.EditMessage(context.Background(), app) {
		t.Fatal("edit without change must return false")
	}
	if tr.edits != 0 {
		t.Fatalf("unchanged edit issued %d transport edits", tr.edits)
	}

	content = "uptime 2s"
	if !s.EditMessage(context.Background(), app) {
		t.Fatal("changed edit must return true")
	}
	if s.EditMessage(context.Background(), app) {
		t.Fatal("second edit with no further change must return false")
	}
	if tr.edits != 1 {
		t.Fatalf("transport edits = %d, want 1", tr.edits)
	}
}

func TestEditSurvivesGoneMessage(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	content := "v1"
	app := mustApp(t, "card", func() string { return content })
	s.SendAppMessage(context.Background(), app, "")

	tr.editErr = ErrMessageGone
	content = "v2"
	if !s.EditMessage(context.Background(), app) {
		t.Fatal("edit must report issued even when the message is gone")
	}
	// The snapshot advanced, so the next render is a no-op again.
	if s.EditMessage(context.Background(), app) {
		t.Fatal("snapshot did not advance past the gone edit")
	}
}

func TestTTLEviction(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	app := mustApp(t, "ephemeral", func() string { return "x" })
	app.TTL = 5 * time.Second
	id := s.SendAppMessage(context.Background(), app, "")
	if id == FailedSendID {
		t.Fatal("app send failed")
	}

	killed := 0
	app.OnKill = func() { killed++ }

	clock.Advance(4 * time.Second)
	s.ExpirySweep(context.Background())
	if tr.deletes != 0 {
		t.Fatalf("premature delete after %d deletes", tr.deletes)
	}

	clock.Advance(2 * time.Second)
	s.ExpirySweep(context.Background())
	if tr.deletes != 1 || killed != 1 {
		t.Fatalf("deletes = %d, kills = %d, want 1/1", tr.deletes, killed)
	}
	if len(tr.deletedIDs) != 1 || tr.deletedIDs[0] != id {
		t.Fatalf("deleted ids = %v, want [%d]", tr.deletedIDs, id)
	}

	// Gone from tracking: editing it is now a no-op.
	if s.EditMessage(context.Background(), app) {
		t.Fatal("evicted message must not be editable")
	}
	s.ExpirySweep(context.Background())
	if tr.deletes != 1 {
		t.Fatalf("second sweep re-deleted: %d", tr.deletes)
	}
}

func TestSweepCollapsesStaleSubMenu(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	sub := mustMenu(t, "sub", "sub screen")
	sub.TTL = 5 * time.Second
	s.GotoMenu(context.Background(), sub)

	clock.Advance(6 * time.Second)
	before := tr.sends
	s.ExpirySweep(context.Background())
	if s.StackDepth() != 1 {
		t.Fatalf("depth after stale sweep = %d, want 1", s.StackDepth())
	}
	if tr.sends-before != 1 {
		t.Fatalf("collapse issued %d sends, want 1 root re-render", tr.sends-before)
	}
}

func TestSendAppMessageReplacesSameLabel(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	first := mustApp(t, "report", func() string { return "one" })
	second := mustApp(t, "report", func() string { return "two" })

	firstID := s.SendAppMessage(context.Background(), first, "Daily")
	secondID := s.SendAppMessage(context.Background(), second, "Daily")
	if firstID == FailedSendID || secondID == FailedSendID {
		t.Fatal("send failed")
	}
	if first.Label() != "report_Daily" || second.Label() != "report_Daily" {
		t.Fatalf("labels = %q / %q", first.Label(), second.Label())
	}
	if tr.deletes != 1 || tr.deletedIDs[0] != firstID {
		t.Fatalf("replace: deletes = %d ids %v, want first id %d", tr.deletes, tr.deletedIDs, firstID)
	}
	// Re-sending the same instance also removes its previous chat copy, so
	// only one copy of the card is ever live.
	thirdID := s.SendAppMessage(context.Background(), second, "Daily")
	if thirdID == FailedSendID || thirdID == secondID {
		t.Fatalf("re-send id = %d", thirdID)
	}
	if tr.deletes != 2 || tr.deletedIDs[1] != secondID {
		t.Fatalf("self re-send: deletes = %d ids %v, want old id %d deleted", tr.deletes, tr.deletedIDs, secondID)
	}
}

func TestSendFailureLeavesStateConsistent(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	tr.failSend = true
	app := mustApp(t, "card", func() string { return "x" })
	if id := s.SendAppMessage(context.Background(), app, ""); id != FailedSendID {
		t.Fatalf("failed send returned %d, want sentinel", id)
	}
	if s.EditMessage(context.Background(), app) {
		t.Fatal("untracked message must not be editable")
	}

	depth := s.StackDepth()
	if id := s.GotoMenu(context.Background(), mustMenu(t, "sub", "s")); id != FailedSendID {
		t.Fatalf("failed menu send returned %d, want sentinel", id)
	}
	if s.StackDepth() != depth {
		t.Fatalf("failed send changed stack depth: %d -> %d", depth, s.StackDepth())
	}
}

func TestNotifyCallbackScenario(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	version := 1
	invoked := 0
	app := mustApp(t, "options", func() string {
		if version == 1 {
			return "options v1"
		}
		return "options v2"
	})
	err := app.AddButton("action_button", menu.Invoke(func(ctx context.Context, args string) (string, error) {
		invoked++
		version = 2
		return "done!", nil
	}))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	s.SendAppMessage(context.Background(), app, "")

	s.OnInlineCallback(context.Background(), "options##action_button", "ack-1")
	if invoked != 1 {
		t.Fatalf("handler invoked %d times, want 1", invoked)
	}
	if tr.answers != 1 || tr.lastAnswerText != "done!" {
		t.Fatalf("answers = %d text %q", tr.answers, tr.lastAnswerText)
	}
	if tr.edits != 1 {
		t.Fatalf("edits = %d, want 1 refresh after the handler", tr.edits)
	}
}

func TestCallbackLookupMissIsSilent(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	s.OnInlineCallback(context.Background(), "nope##nothing", "ack-1")
	s.OnInlineCallback(context.Background(), "garbage without separator", "ack-2")
	if tr.answers != 0 || tr.edits != 0 || tr.sends != 1 {
		t.Fatalf("lookup miss had side effects: answers=%d edits=%d sends=%d",
			tr.answers, tr.edits, tr.sends)
	}
}

func TestSendTextCallback(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	app := mustApp(t, "tools", func() string { return "tools" })
	err := app.Add(menu.Button{
		Label: "Report",
		Kind:  menu.KindSendText,
		Action: menu.Invoke(func(ctx context.Context, args string) (string, error) {
			return "the report body", nil
		}),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	s.SendAppMessage(context.Background(), app, "")

	before := tr.sends
	s.OnInlineCallback(context.Background(), "tools##Report", "ack-1")
	if tr.sends-before != 1 || tr.lastSendText != "the report body" {
		t.Fatalf("sends = %d text %q", tr.sends-before, tr.lastSendText)
	}
	if tr.answers != 1 || tr.lastAnswerText != "Message sent!" {
		t.Fatalf("answers = %d text %q", tr.answers, tr.lastAnswerText)
	}
	if tr.actions == 0 {
		t.Fatal("expected a typing presence hint")
	}
}

func TestPollAnswerScenario(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	var answered string
	app := mustApp(t, "quiz", func() string { return "quiz" })
	err := app.Add(menu.Button{
		Label: "Vote",
		Kind:  menu.KindPoll,
		Poll:  &menu.PollDefinition{Question: "Pick one", Options: []string{"A", "B"}},
		Action: menu.Invoke(func(ctx context.Context, args string) (string, error) {
			answered = args
			return "", nil
		}),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	s.SendAppMessage(context.Background(), app, "")

	s.OnInlineCallback(context.Background(), "quiz##Vote", "ack-1")
	if tr.polls != 1 {
		t.Fatalf("polls = %d, want 1", tr.polls)
	}
	if !sched.HasJob(s.pollJobID()) {
		t.Fatal("poll deadline not scheduled")
	}

	s.OnPollAnswer(context.Background(), 1)
	if answered != "B" {
		t.Fatalf("answered = %q, want B", answered)
	}
	if tr.deletes != 1 {
		t.Fatalf("poll message deletes = %d, want 1", tr.deletes)
	}
	if sched.HasJob(s.pollJobID()) {
		t.Fatal("deadline job survived the answer")
	}
	// A stray late answer is dropped.
	s.OnPollAnswer(context.Background(), 0)
	if answered != "B" {
		t.Fatalf("late answer re-invoked callback: %q", answered)
	}
}

func TestPollExclusivity(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	firstInvoked := false
	secondAnswered := ""
	app := mustApp(t, "quiz", func() string { return "quiz" })
	if err := app.Add(menu.Button{
		Label: "First",
		Kind:  menu.KindPoll,
		Poll:  &menu.PollDefinition{Question: "one?", Options: []string{"A", "B"}},
		Action: menu.Invoke(func(ctx context.Context, args string) (string, error) {
			firstInvoked = true
			return "", nil
		}),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := app.Add(menu.Button{
		Label: "Second",
		Kind:  menu.KindPoll,
		Poll:  &menu.PollDefinition{Question: "two?", Options: []string{"X", "Y"}},
		Action: menu.Invoke(func(ctx context.Context, args string) (string, error) {
			secondAnswered = args
			return "", nil
		}),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.SendAppMessage(context.Background(), app, "")

	s.OnInlineCallback(context.Background(), "quiz##First", "ack-1")
	s.OnInlineCallback(context.Background(), "quiz##Second", "ack-2")
	if tr.polls != 2 {
		t.Fatalf("polls sent = %d, want 2", tr.polls)
	}
	if tr.deletes != 1 {
		t.Fatalf("first poll deletes = %d, want 1", tr.deletes)
	}

	s.OnPollAnswer(context.Background(), 0)
	if firstInvoked {
		t.Fatal("superseded poll's callback must never run")
	}
	if secondAnswered != "X" {
		t.Fatalf("second answer = %q, want X", secondAnswered)
	}
}

func TestPollDeadlineDropsPoll(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	s := startedSession(t, root, tr, sched, clock)

	invoked := false
	app := mustApp(t, "quiz", func() string { return "quiz" })
	if err := app.Add(menu.Button{
		Label: "Vote",
		Kind:  menu.KindPoll,
		Poll:  &menu.PollDefinition{Question: "q", Options: []string{"A"}},
		Action: menu.Invoke(func(ctx context.Context, args string) (string, error) {
			invoked = true
			return "", nil
		}),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.SendAppMessage(context.Background(), app, "")
	s.OnInlineCallback(context.Background(), "quiz##Vote", "ack-1")

	if !sched.Fire(s.pollJobID()) {
		t.Fatal("deadline job missing")
	}
	if invoked {
		t.Fatal("deadline expiry must not invoke the callback")
	}
	if tr.deletes != 1 {
		t.Fatalf("poll deletes = %d, want 1", tr.deletes)
	}
	s.OnPollAnswer(context.Background(), 0)
	if invoked {
		t.Fatal("answer after deadline must be dropped")
	}
}

func TestCaptureUserInputRouting(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	var rootGot string
	root.TextInput = func(text string) { rootGot = text }
	s := startedSession(t, root, tr, sched, clock)

	s.OnTextCommand(context.Background(), "hello")
	if rootGot != "hello" {
		t.Fatalf("root input = %q, want hello", rootGot)
	}

	// A fresher application message takes over input capture.
	clock.Advance(time.Second)
	var appGot string
	app := mustApp(t, "form", func() string { return "form" })
	app.TextInput = func(text string) { appGot = text }
	s.SendAppMessage(context.Background(), app, "")

	s.OnTextCommand(context.Background(), "answer 42")
	if appGot != "answer 42" {
		t.Fatalf("app input = %q, want answer 42", appGot)
	}
	if rootGot != "hello" {
		t.Fatalf("root input changed: %q", rootGot)
	}
}

func TestHomeAfterAppMessage(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	card := mustApp(t, "confirm", func() string { return "done" })
	card.HomeAfter = true
	if err := root.AddButton("Finish", menu.Navigate(card)); err != nil {
		t.Fatalf("add: %v", err)
	}
	second := mustMenu(t, "second", "s")
	if err := root.AddButton("More", menu.Navigate(second)); err != nil {
		t.Fatalf("add: %v", err)
	}
	s := startedSession(t, root, tr, sched, clock)

	s.SelectMenuButton(context.Background(), "More")
	if s.StackDepth() != 2 {
		t.Fatalf("depth = %d, want 2", s.StackDepth())
	}
	id := s.SelectMenuButton(context.Background(), "Finish")
	if s.StackDepth() != 1 {
		t.Fatalf("depth after home-after = %d, want 1", s.StackDepth())
	}
	if id != root.MessageID() {
		t.Fatalf("home-after returned %d, want root id %d", id, root.MessageID())
	}
}

func TestButtonsPerRowOverride(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	root := mustMenu(t, "root", "home")
	for _, label := range []string{"One", "Two", "Three"} {
		if err := root.AddButton(label, menu.NoAction()); err != nil {
			t.Fatalf("add %s: %v", label, err)
		}
	}

	s, err := NewSession(7, tr, sched, Options{ButtonsPerRow: 1, Now: clock.Now})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.Start(context.Background(), root); err != nil {
		t.Fatalf("start: %v", err)
	}

	mk := tr.lastMarkup
	if mk == nil || len(mk.Rows) != 3 {
		t.Fatalf("markup rows = %v, want 3 rows of 1", mk)
	}
	for i, row := range mk.Rows {
		if len(row) != 1 {
			t.Fatalf("row %d width = %d, want 1", i, len(row))
		}
	}
}
