package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Backend persists the serialized state document.
type Backend interface {
	// Load returns the stored document, or (nil, nil) when none exists.
	Load(ctx context.Context) ([]byte, error)

	// Save durably replaces the stored document.
	Save(ctx context.Context, data []byte) error
}

// Store is the in-process view of the state document. All methods are safe
// for concurrent use; mutations are linearizable and written through to the
// backend before returning.
type Store struct {
	backend Backend

	mu  sync.Mutex
	doc document
}

const documentVersion = 1

type document struct {
	Version   int               `json:"version"`
	Resources map[string]record `json:"resources"`
}

type record struct {
	Kind      string          `json:"kind"`
	RemoteID  string          `json:"remote_id,omitempty"`
	Status    Status          `json:"status"`
	PendingOp Op              `json:"pending_op,omitempty"`
	Attrs     json.RawMessage `json:"attrs,omitempty"`
	Outputs   json.RawMessage `json:"outputs,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
	LastError string          `json:"last_error,omitempty"`
}

// NewStore loads the document from the backend, creating an empty one when
// the backend holds nothing yet.
func NewStore(ctx context.Context, backend Backend) (*Store, error) {
	s := &Store{backend: backend}

	data, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if data == nil {
		s.doc = document{Version: documentVersion, Resources: make(map[string]record)}
		return s, nil
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse state document: %w", err)
	}
	if s.doc.Version != documentVersion {
		return nil, fmt.Errorf("unsupported state document version %d", s.doc.Version)
	}
	if s.doc.Resources == nil {
		s.doc.Resources = make(map[string]record)
	}
	return s, nil
}

// Get returns the recorded state for a logical name. Unknown names report
// StatusAbsent.
func (s *Store) Get(name string) (ResourceState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.doc.Resources[name]
	if !ok {
		return ResourceState{Name: name, Status: StatusAbsent}, false, nil
	}
	st, err := recordToState(name, rec)
	if err != nil {
		return ResourceState{}, false, err
	}
	return st, true, nil
}

// Put replaces the record for a logical name and persists the document.
func (s *Store) Put(ctx context.Context, st ResourceState) error {
	return s.Update(ctx, st.Name, func(cur *ResourceState) error {
		*cur = st
		return nil
	})
}

// Update applies an atomic read-modify-write to one record and persists the
// document. The callback sees the current record (StatusAbsent when new)
// and mutates it in place.
func (s *Store) Update(ctx context.Context, name string, fn func(*ResourceState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st ResourceState
	if rec, ok := s.doc.Resources[name]; ok {
		decoded, err := recordToState(name, rec)
		if err != nil {
			return err
		}
		st = decoded
	} else {
		st = ResourceState{Name: name, Status: StatusAbsent}
	}

	if err := fn(&st); err != nil {
		return err
	}
	st.Name = name
	st.UpdatedAt = time.Now().UTC()

	rec, err := stateToRecord(st)
	if err != nil {
		return err
	}
	s.doc.Resources[name] = rec
	return s.persistLocked(ctx)
}

// Delete removes the record for a logical name and persists the document.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Resources[name]; !ok {
		return nil
	}
	delete(s.doc.Resources, name)
	return s.persistLocked(ctx)
}

// List returns every record sorted by name.
func (s *Store) List() ([]ResourceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.doc.Resources))
	for name := range s.doc.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ResourceState, 0, len(names))
	for _, name := range names {
		st, err := recordToState(name, s.doc.Resources[name])
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Pending returns every record left with a pending marker, the input to
// the reconciliation pass.
func (s *Store) Pending() ([]ResourceState, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var pending []ResourceState
	for _, st := range all {
		if st.Status == StatusPending {
			pending = append(pending, st)
		}
	}
	return pending, nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

func stateToRecord(st ResourceState) (record, error) {
	rec := record{
		Kind:      st.Kind,
		RemoteID:  st.RemoteID,
		Status:    st.Status,
		PendingOp: st.PendingOp,
		UpdatedAt: st.UpdatedAt,
		LastError: st.LastError,
	}
	var err error
	if rec.Attrs, err = encodeValue(st.Attrs); err != nil {
		return record{}, fmt.Errorf("resource %q attrs: %w", st.Name, err)
	}
	if rec.Outputs, err = encodeValue(st.Outputs); err != nil {
		return record{}, fmt.Errorf("resource %q outputs: %w", st.Name, err)
	}
	return rec, nil
}

func recordToState(name string, rec record) (ResourceState, error) {
	st := ResourceState{
		Name:      name,
		Kind:      rec.Kind,
		RemoteID:  rec.RemoteID,
		Status:    rec.Status,
		PendingOp: rec.PendingOp,
		UpdatedAt: rec.UpdatedAt,
		LastError: rec.LastError,
	}
	var err error
	if st.Attrs, err = decodeValue(rec.Attrs); err != nil {
		return ResourceState{}, fmt.Errorf("resource %q attrs: %w", name, err)
	}
	if st.Outputs, err = decodeValue(rec.Outputs); err != nil {
		return ResourceState{}, fmt.Errorf("resource %q outputs: %w", name, err)
	}
	return st, nil
}

// encodeValue stores a cty value together with its type so decode restores
// the exact same value.
func encodeValue(v cty.Value) (json.RawMessage, error) {
	if v == cty.NilVal {
		return nil, nil
	}
	return ctyjson.Marshal(v, cty.DynamicPseudoType)
}

func decodeValue(raw json.RawMessage) (cty.Value, error) {
	if len(raw) == 0 {
		return cty.NilVal, nil
	}
	return ctyjson.Unmarshal(raw, cty.DynamicPseudoType)
}
