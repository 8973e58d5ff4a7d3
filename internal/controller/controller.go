package controller

import (
	"fmt"
	"log"
	"sync"

	"github.com/jobboard/tracker/internal/tracker"
	"github.com/jobboard/tracker/internal/view"
)

// Listener receives every page recomputed after an event. Listeners run
// while the event lock is held and must not block.
type Listener func(view.Page)

// Controller turns user events into board mutations and rebuilds the page
// after each one. Events run one at a time; listeners are notified before
// the next event starts.
type Controller struct {
	mu        sync.Mutex
	board     *tracker.Board
	debug     bool
	nextID    int
	listeners map[int]Listener
}

func New(board *tracker.Board) *Controller {
	return &Controller{
		board:     board,
		listeners: make(map[int]Listener),
	}
}

func (c *Controller) SetDebug(debug bool) {
	c.debug = debug
}

// Subscribe registers fn and returns a function that removes it.
func (c *Controller) Subscribe(fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribe(fn)
}

// Attach hands fn the current page and registers it for every later one in a
// single critical section, so no event can fall between the two.
func (c *Controller) Attach(fn Listener) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.render()
	if err != nil {
		return nil, err
	}
	fn(page)
	return c.subscribe(fn), nil
}

// Publish hands fn the current page under the event lock. Pages delivered
// this way are ordered with the ones listeners receive.
func (c *Controller) Publish(fn Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.render()
	if err != nil {
		return err
	}
	fn(page)
	return nil
}

func (c *Controller) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// subscribe must be called with c.mu held. The returned function takes the
// lock itself and is safe to call more than once.
func (c *Controller) subscribe(fn Listener) func() {
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Start loads the seed list and publishes the first page.
func (c *Controller) Start(seed []tracker.JobRecord) (view.Page, error) {
	return c.apply("start", func() error {
		return c.board.Load(seed)
	})
}

func (c *Controller) SelectTab(f tracker.Filter) (view.Page, error) {
	return c.apply("select tab "+string(f), func() error {
		c.board.SetFilter(f)
		return nil
	})
}

func (c *Controller) Toggle(id int, status tracker.Status) (view.Page, error) {
	return c.apply(fmt.Sprintf("toggle %d %s", id, status), func() error {
		return c.board.ToggleStatus(id, status)
	})
}

func (c *Controller) Delete(id int) (view.Page, error) {
	return c.apply(fmt.Sprintf("delete %d", id), func() error {
		return c.board.DeleteJob(id)
	})
}

// View returns the current page without changing anything or notifying.
func (c *Controller) View() (view.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render()
}

// Board exposes read access for surfaces that list records directly.
func (c *Controller) Board() *tracker.Board {
	return c.board
}

func (c *Controller) apply(event string, mutate func() error) (view.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := mutate(); err != nil {
		log.Printf("Event %s failed: %v", event, err)
		return view.Page{}, err
	}

	page, err := c.render()
	if err != nil {
		return view.Page{}, err
	}

	if c.debug {
		log.Printf("Event %s: total=%d interviewing=%d rejected=%d shown=%d",
			event, page.Dashboard.Total, page.Dashboard.Interviewing, page.Dashboard.Rejected, page.TabCount)
	}

	for _, fn := range c.listeners {
		fn(page)
	}
	return page, nil
}

func (c *Controller) render() (view.Page, error) {
	snap, err := c.board.Query()
	if err != nil {
		return view.Page{}, err
	}
	return view.Build(snap), nil
}
