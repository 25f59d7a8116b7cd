package navigation

import (
	"context"
	"errors"
	"testing"

	"github.com/mevellea/telegram-menu/core/menu"
)

func menuFactory() (*menu.Message, error) {
	m, err := menu.NewMenu("root", func() string { return "home" })
	if err != nil {
		return nil, err
	}
	return m, nil
}

func TestRegistryValidatesFactory(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()

	if _, err := NewRegistry(tr, sched, nil, Options{}); err != ErrNoRootFactory {
		t.Fatalf("nil factory: got %v, want ErrNoRootFactory", err)
	}

	appFactory := func() (*menu.Message, error) {
		return menu.NewApp("root", func() string { return "x" })
	}
	if _, err := NewRegistry(tr, sched, appFactory, Options{}); err != ErrInvalidRoot {
		t.Fatalf("app-mode root: got %v, want ErrInvalidRoot", err)
	}

	boom := errors.New("boom")
	failing := func() (*menu.Message, error) { return nil, boom }
	if _, err := NewRegistry(tr, sched, failing, Options{}); !errors.Is(err, boom) {
		t.Fatalf("failing factory: got %v, want boom", err)
	}

	if _, err := NewRegistry(nil, sched, menuFactory, Options{}); err != ErrNoTransport {
		t.Fatalf("nil transport: got %v, want ErrNoTransport", err)
	}
}

func TestRegistryLazyCreation(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	reg, err := NewRegistry(tr, sched, menuFactory, Options{Now: clock.Now})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if _, err := reg.Lookup(7); err != ErrNoSession {
		t.Fatalf("lookup before contact: got %v, want ErrNoSession", err)
	}

	s, err := reg.Session(context.Background(), 7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tr.sends != 1 {
		t.Fatalf("first contact sends = %d, want 1 root menu", tr.sends)
	}
	if s.StackDepth() != 1 {
		t.Fatalf("depth = %d, want 1", s.StackDepth())
	}

	again, err := reg.Session(context.Background(), 7)
	if err != nil || again != s {
		t.Fatalf("repeat contact: %v, same=%v", err, again == s)
	}
	if tr.sends != 1 {
		t.Fatalf("repeat contact re-sent root: %d", tr.sends)
	}

	other, err := reg.Session(context.Background(), 8)
	if err != nil || other == s {
		t.Fatalf("second chat: %v, distinct=%v", err, other != s)
	}
}

func TestRegistryBroadcast(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	reg, err := NewRegistry(tr, sched, menuFactory, Options{Now: clock.Now})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	for _, chat := range []int64{1, 2, 3} {
		if _, err := reg.Session(context.Background(), chat); err != nil {
			t.Fatalf("create %d: %v", chat, err)
		}
	}

	before := tr.sends
	reg.BroadcastText(context.Background(), "maintenance at noon")
	if tr.sends-before != 3 {
		t.Fatalf("broadcast sends = %d, want 3", tr.sends-before)
	}

	reg.BroadcastPicture(context.Background(), "banner.png", "new release")
	if tr.photos != 3 {
		t.Fatalf("broadcast photos = %d, want 3", tr.photos)
	}
}

func TestRegistryDiscard(t *testing.T) {
	tr := newFakeTransport()
	sched := newFakeScheduler()
	clock := newFakeClock()
	reg, err := NewRegistry(tr, sched, menuFactory, Options{Now: clock.Now})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	s, err := reg.Session(context.Background(), 7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !sched.HasJob(s.sweepJobID()) {
		t.Fatal("sweep job missing after start")
	}

	reg.Discard(7)
	if _, err := reg.Lookup(7); err != ErrNoSession {
		t.Fatalf("lookup after discard: got %v, want ErrNoSession", err)
	}
	if sched.HasJob(s.sweepJobID()) {
		t.Fatal("sweep job survived discard")
	}
}
