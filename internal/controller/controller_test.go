package controller

import (
	"sync"
	"testing"

	"github.com/jobboard/tracker/internal/tracker"
	"github.com/jobboard/tracker/internal/view"
)

func newStarted(t *testing.T) (*Controller, *[]view.Page) {
	t.Helper()
	seed, err := tracker.DefaultSeed()
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}

	c := New(tracker.NewBoard(tracker.NewMemoryRepository()))
	var pages []view.Page
	c.Subscribe(func(p view.Page) { pages = append(pages, p) })

	if _, err := c.Start(seed); err != nil {
		t.Fatalf("start: %v", err)
	}
	return c, &pages
}

func TestController_StartPublishesInitialView(t *testing.T) {
	_, pages := newStarted(t)

	if len(*pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(*pages))
	}
	p := (*pages)[0]
	if p.Dashboard.Total != 8 || len(p.Cards) != 8 || p.Empty {
		t.Errorf("unexpected initial page: total=%d cards=%d empty=%v", p.Dashboard.Total, len(p.Cards), p.Empty)
	}
	if !p.Tabs[0].Active {
		t.Error("expected All tab active")
	}
}

func TestController_EveryEventRecomputesView(t *testing.T) {
	c, pages := newStarted(t)

	p, err := c.Toggle(3, tracker.StatusInterviewing)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if p.Dashboard.Interviewing != 1 || !p.Cards[2].InterviewPressed {
		t.Errorf("unexpected page after toggle: %+v", p.Dashboard)
	}

	p, _ = c.SelectTab(tracker.FilterInterviewing)
	if p.TabCount != 1 || p.Cards[0].ID != 3 || !p.Tabs[1].Active {
		t.Errorf("unexpected page after tab select: count=%d", p.TabCount)
	}

	p, _ = c.Toggle(3, tracker.StatusInterviewing)
	if !p.Empty || p.TabCount != 0 {
		t.Errorf("expected empty interviewing tab, got %d cards", len(p.Cards))
	}

	p, _ = c.Delete(5)
	if p.Dashboard.Total != 7 {
		t.Errorf("expected total 7, got %d", p.Dashboard.Total)
	}

	if len(*pages) != 5 {
		t.Errorf("expected 5 published pages, got %d", len(*pages))
	}
	last := (*pages)[len(*pages)-1]
	if last.Dashboard.Total != 7 {
		t.Errorf("listener saw stale page: %+v", last.Dashboard)
	}
}

func TestController_MissingIDStillPublishes(t *testing.T) {
	c, pages := newStarted(t)

	p, err := c.Delete(100)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if p.Dashboard.Total != 8 {
		t.Errorf("expected total 8, got %d", p.Dashboard.Total)
	}
	if _, err := c.Toggle(100, tracker.StatusRejected); err != nil {
		t.Errorf("toggle: %v", err)
	}
	if len(*pages) != 3 {
		t.Errorf("expected 3 published pages, got %d", len(*pages))
	}
}

func TestController_ViewDoesNotNotify(t *testing.T) {
	c, pages := newStarted(t)

	p, err := c.View()
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if p.Dashboard.Total != 8 {
		t.Errorf("expected 8, got %d", p.Dashboard.Total)
	}
	if len(*pages) != 1 {
		t.Errorf("expected no extra notifications, got %d pages", len(*pages))
	}
}

func TestController_Unsubscribe(t *testing.T) {
	c, _ := newStarted(t)

	calls := 0
	unsubscribe := c.Subscribe(func(view.Page) { calls++ })
	c.Toggle(1, tracker.StatusRejected)
	unsubscribe()
	c.Toggle(1, tracker.StatusRejected)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestController_StartRejectsDuplicateSeed(t *testing.T) {
	c := New(tracker.NewBoard(tracker.NewMemoryRepository()))
	seed := []tracker.JobRecord{
		tracker.New(1, "A", "P", "", "", "", ""),
		tracker.New(1, "B", "Q", "", "", "", ""),
	}
	if _, err := c.Start(seed); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestController_AttachDeliversCurrentThenLater(t *testing.T) {
	c, _ := newStarted(t)
	c.Toggle(2, tracker.StatusRejected)

	var got []view.Page
	detach, err := c.Attach(func(p view.Page) { got = append(got, p) })
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(got) != 1 || got[0].Dashboard.Rejected != 1 {
		t.Fatalf("expected current page on attach, got %d pages", len(got))
	}

	c.Delete(2)
	if len(got) != 2 || got[1].Dashboard.Total != 7 {
		t.Errorf("expected page after delete, got %d pages", len(got))
	}

	if n := c.Subscribers(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}
	detach()
	detach()
	if n := c.Subscribers(); n != 1 {
		t.Errorf("expected 1 subscriber after detach, got %d", n)
	}
}

func TestController_AttachNeverMissesAnEvent(t *testing.T) {
	c, _ := newStarted(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Toggle(1, tracker.StatusInterviewing)
		}
	}()

	var mu sync.Mutex
	var last view.Page
	detach, err := c.Attach(func(p view.Page) {
		mu.Lock()
		last = p
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer detach()
	wg.Wait()

	want, _ := c.View()
	mu.Lock()
	defer mu.Unlock()
	if last.Dashboard != want.Dashboard || last.Cards[0].Status != want.Cards[0].Status {
		t.Errorf("listener ended on %+v, board is %+v", last.Dashboard, want.Dashboard)
	}
}

func TestController_PublishDoesNotNotifyOthers(t *testing.T) {
	c, pages := newStarted(t)

	var got view.Page
	if err := c.Publish(func(p view.Page) { got = p }); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got.Dashboard.Total != 8 {
		t.Errorf("expected 8, got %d", got.Dashboard.Total)
	}
	if len(*pages) != 1 {
		t.Errorf("expected no extra notifications, got %d pages", len(*pages))
	}
}
