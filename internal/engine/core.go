package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// Store persists the whole Document.
// Load returns ErrNoDocument on first run.
type Store interface {
	Load() (*Document, error)
	Save(doc *Document) error
}

// Observer is notified after every successful save.
// It runs on the caller's goroutine and must not retain doc.
type Observer interface {
	Committed(doc *Document)
}

// Core owns the Document and writes it through to the Store after every mutation.
type Core struct {
	Roster  *Roster
	Session *Machine

	store     Store
	doc       *Document
	observers []Observer
}

// NewCore loads the document (initializing defaults when absent) and wires the components.
func NewCore(store Store, clock Clock, observers ...Observer) (*Core, error) {
	doc, err := store.Load()
	switch {
	case errors.Is(err, ErrNoDocument):
		doc = NewDocument()
		if err := store.Save(doc); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrPersist, err)
		}
		slog.Info(config.MsgDocCreated, config.LogKeyComponent, config.CompEngine)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", config.ErrLoadDocument, err)
	default:
		slog.Info(config.MsgDocLoaded,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyCount, len(doc.Participants),
		)
	}
	doc.normalize()

	c := &Core{
		store:     store,
		doc:       doc,
		observers: observers,
	}
	c.Roster = &Roster{doc: doc, commit: c.Commit}
	c.Session = &Machine{doc: doc, roster: c.Roster, clock: clock, commit: c.Commit}

	c.notify()
	return c, nil
}

// Commit saves the document and notifies observers.
// A failed save leaves the in-memory transition in place.
func (c *Core) Commit() error {
	if err := c.store.Save(c.doc); err != nil {
		return fmt.Errorf("%s: %w", config.ErrPersist, err)
	}
	c.notify()
	return nil
}

func (c *Core) notify() {
	for _, o := range c.observers {
		o.Committed(c.doc)
	}
}
