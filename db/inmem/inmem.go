// Package inmem provides a contact store held in process memory. It enforces
// the same uniqueness of IDs and Emails that the SQL stores get from their
// engines, and can optionally save its contents to a file.
//
// Use [Open] to create a [Store] that persists to a file on disk. The contents
// are written by calling [Store.Persist] at appropriate times, and when a
// Store is no longer in use, [Store.Close] flushes it a final time. A purely
// in-memory Store is obtained by calling [New], or [Import] to create one
// from previously-exported bytes.
package inmem

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dekarrin/rezi/v2"
	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/contact"
	"github.com/dekarrin/valobj/db"
	"github.com/dekarrin/valobj/logging"
	"github.com/dekarrin/valobj/value"
)

// Store is an in-memory db.Store. It is also its own db.ContactRepo. It is
// safe for concurrent use.
type Store struct {
	// DataFile is the file that Persist writes to. If empty, Persist only
	// finalizes pending changes and nothing is written to disk.
	DataFile string

	log valobj.Logger

	mtx     sync.RWMutex
	closed  bool
	order   []value.ID
	byID    map[value.ID]contact.Contact
	byEmail map[value.Email]value.ID
}

// New creates an empty Store that is not backed by a file.
func New(log valobj.Logger) *Store {
	s := &Store{}
	s.reset()
	s.SetLogger(log)
	return s
}

// Open creates a new Store that will persist itself to the given data file. If
// the file already exists, its entire contents are loaded into the returned
// Store. If the file does not exist, it is created with an empty Store.
//
// The returned Store does not automatically save its contents; Persist or
// Close must be called to flush it.
func Open(file string, log valobj.Logger) (*Store, error) {
	if file == "" {
		return New(log), nil
	}

	data, err := os.ReadFile(file)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var s *Store
	if err == nil {
		s, err = Import(data)
		if err != nil {
			return nil, fmt.Errorf("load data: %w", err)
		}
	} else {
		s = New(nil)
	}
	s.SetLogger(log)
	s.DataFile = file

	// a new file is written immediately so that permission problems show up
	// now instead of on the first Persist.
	if err := s.Persist(); err != nil {
		return nil, err
	}

	return s, nil
}

// Import loads the given data bytes into a new in-memory Store. The data must
// have been created by a prior call to Export.
func Import(data []byte) (*Store, error) {
	s := New(nil)

	_, err := rezi.Dec(data, s)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SetLogger sets the logger that the Store reports operations to. A nil log
// disables logging.
func (s *Store) SetLogger(log valobj.Logger) {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	s.log = log
}

func (s *Store) reset() {
	s.order = nil
	s.byID = make(map[value.ID]contact.Contact)
	s.byEmail = make(map[value.Email]value.ID)
}

func (s *Store) Contacts() db.ContactRepo {
	return s
}

func (s *Store) Dialect() db.Dialect {
	return db.InMemory
}

// MarshalBinary converts the store to a binary representation of itself that
// can be loaded with UnmarshalBinary.
//
// This function is not concurrent safe. Callers should prefer Export.
func (s *Store) MarshalBinary() ([]byte, error) {
	all := make([]contact.Contact, len(s.order))
	for i, id := range s.order {
		all[i] = s.byID[id]
	}

	return rezi.MustEnc(all), nil
}

// UnmarshalBinary replaces the contents of the Store with those decoded from
// data. Stored contacts are re-validated and must not violate uniqueness.
//
// This function is not concurrent safe. Callers should prefer Import.
func (s *Store) UnmarshalBinary(data []byte) error {
	if s == nil {
		return fmt.Errorf("cannot unmarshal to nil Store")
	}

	rr, err := rezi.NewReader(bytes.NewBuffer(data), nil)
	if err != nil {
		return err
	}

	var all []contact.Contact
	err = rr.Dec(&all)
	if err != nil {
		return rezi.Wrapf(0, "contacts: %s", err)
	}

	s.reset()
	for i := range all {
		if err := s.insertUnsafe(all[i]); err != nil {
			return fmt.Errorf("contact %d: %w", i, err)
		}
	}

	return nil
}

// Export exports all data to bytes that can be later loaded with Import.
func (s *Store) Export() ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.exportUnsafe()
}

func (s *Store) exportUnsafe() ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("operation called on closed *Store")
	}

	return rezi.Enc(s)
}

// Persist saves the data to DataFile. If DataFile is empty, Persist has no
// effect beyond checking that the Store is still open.
func (s *Store) Persist() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.persistUnsafe()
}

// persistUnsafe assumes the caller holds the write lock.
func (s *Store) persistUnsafe() error {
	if s.closed {
		return fmt.Errorf("operation called on closed *Store")
	}

	if s.DataFile == "" {
		return nil
	}

	dataBytes, err := s.exportUnsafe()
	if err != nil {
		return fmt.Errorf("get data bytes: %w", err)
	}

	// write to a sibling file first so a failed write never clobbers the last
	// good copy.
	tmpFile := s.DataFile + ".tmp"
	wf, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create data file: %w", err)
	}
	w := bufio.NewWriter(wf)

	if _, err := w.Write(dataBytes); err != nil {
		wf.Close()
		return fmt.Errorf("write data file: %w", err)
	}
	if err := w.Flush(); err != nil {
		wf.Close()
		return fmt.Errorf("write data file: %w", err)
	}
	if err := wf.Close(); err != nil {
		return fmt.Errorf("close data file: %w", err)
	}

	if err := os.Rename(tmpFile, s.DataFile); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}

	s.log.Debugf("inmem: persisted %d contact(s) to %s", len(s.order), s.DataFile)
	return nil
}

// Close persists any unflushed changes (if DataFile is set) and ends all use of
// the Store. After Close returns, the Store cannot be used again, regardless
// of whether the returned error is nil. Closing an already-closed Store has no
// effect.
func (s *Store) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.closed {
		return nil
	}

	err := s.persistUnsafe()

	s.closed = true

	if err != nil {
		return fmt.Errorf("persist data to disk: %w", err)
	}
	return nil
}

func (s *Store) String() string {
	if s == nil {
		return "Store<nil>"
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return fmt.Sprintf("Store<%d contact(s)>", len(s.order))
}

// insertUnsafe assumes the caller holds the write lock.
func (s *Store) insertUnsafe(c contact.Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, ok := s.byID[c.ID]; ok {
		return valobj.WrapDBErrorf(valobj.ErrConstraintViolation, "id %s already exists", c.ID)
	}
	if _, ok := s.byEmail[c.Email]; ok {
		return valobj.WrapDBErrorf(valobj.ErrConstraintViolation, "email %q already exists", c.Email)
	}

	s.byID[c.ID] = c
	s.byEmail[c.Email] = c.ID
	s.order = append(s.order, c.ID)
	return nil
}

func (s *Store) checkOpen() error {
	if s.closed {
		return valobj.WrapDBError(fmt.Errorf("operation called on closed *Store"))
	}
	return nil
}

func (s *Store) Create(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkOpen(); err != nil {
		return contact.Contact{}, err
	}

	s.log.Tracef("inmem: insert %s", c)
	if err := s.insertUnsafe(c); err != nil {
		return contact.Contact{}, err
	}
	return c, nil
}

func (s *Store) SaveAll(ctx context.Context, cs ...contact.Contact) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}

	// check everything against a scratch copy of the indexes first so that a
	// failure leaves the store untouched.
	pendingIDs := make(map[value.ID]bool, len(cs))
	pendingEmails := make(map[value.Email]bool, len(cs))
	for i, c := range cs {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("contact %d: %w", i, err)
		}
		if _, ok := s.byID[c.ID]; ok || pendingIDs[c.ID] {
			return fmt.Errorf("contact %d: %w", i, valobj.WrapDBErrorf(valobj.ErrConstraintViolation, "id %s already exists", c.ID))
		}
		if _, ok := s.byEmail[c.Email]; ok || pendingEmails[c.Email] {
			return fmt.Errorf("contact %d: %w", i, valobj.WrapDBErrorf(valobj.ErrConstraintViolation, "email %q already exists", c.Email))
		}
		pendingIDs[c.ID] = true
		pendingEmails[c.Email] = true
	}

	for _, c := range cs {
		if err := s.insertUnsafe(c); err != nil {
			// should never happen; checked above
			panic(fmt.Sprintf("insert after check failed: %v", err))
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id value.ID) (contact.Contact, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.checkOpen(); err != nil {
		return contact.Contact{}, err
	}

	c, ok := s.byID[id]
	if !ok {
		return contact.Contact{}, valobj.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetByEmail(ctx context.Context, email value.Email) (contact.Contact, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.checkOpen(); err != nil {
		return contact.Contact{}, err
	}

	id, ok := s.byEmail[email]
	if !ok {
		return contact.Contact{}, valobj.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Store) First(ctx context.Context) (contact.Contact, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.checkOpen(); err != nil {
		return contact.Contact{}, err
	}

	if len(s.order) == 0 {
		return contact.Contact{}, valobj.ErrNotFound
	}
	return s.byID[s.order[0]], nil
}

func (s *Store) GetAll(ctx context.Context) ([]contact.Contact, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	all := make([]contact.Contact, len(s.order))
	for i, id := range s.order {
		all[i] = s.byID[id]
	}
	return all, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	return len(s.order), nil
}

func (s *Store) Delete(ctx context.Context, id value.ID) (contact.Contact, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.checkOpen(); err != nil {
		return contact.Contact{}, err
	}

	c, ok := s.byID[id]
	if !ok {
		return contact.Contact{}, valobj.ErrNotFound
	}

	delete(s.byID, id)
	delete(s.byEmail, c.Email)
	for i := range s.order {
		if s.order[i] == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return c, nil
}
