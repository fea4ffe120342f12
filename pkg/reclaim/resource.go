package reclaim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/llabusch93/reclaim-sdk/pkg/utils"
)

// Resource is implemented by every type a Store can manage. Embedding Base
// provides the unexported part.
type Resource interface {
	Endpoint() string
	Schema() *Schema
	// ResourceID is "" while the resource has not been created.
	ResourceID() string
	state() *Base
}

// Base carries the server-assigned timestamps and the last state the server
// returned, which partial updates are computed against.
type Base struct {
	Created *Time `json:"created,omitempty"`
	Updated *Time `json:"updated,omitempty"`

	snapshot map[string]json.RawMessage
	// wire is the server response as received, keyed by wire name.
	wire map[string]json.RawMessage
}

func (b *Base) state() *Base { return b }

// Loaded reports whether the fields came from a server response.
func (b *Base) Loaded() bool { return b.snapshot != nil }

// CreateDate returns the creation timestamp, zero if unknown.
func (b *Base) CreateDate() time.Time { return b.Created.value() }

// UpdateDate returns the last update timestamp, zero if unknown.
func (b *Base) UpdateDate() time.Time { return b.Updated.value() }

// Equal reports whether a and b are the same remote record.
func Equal(a, b Resource) bool {
	if a == nil || b == nil {
		return false
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a.ResourceID() != "" && a.ResourceID() == b.ResourceID()
}

// ResourcePtr constrains P to be *T implementing Resource.
type ResourcePtr[T any] interface {
	*T
	Resource
}

// UpdateMode selects how Save updates an existing record.
type UpdateMode int

const (
	// PartialUpdate sends only fields that changed since the last server response (PATCH).
	PartialUpdate UpdateMode = iota
	// FullUpdate sends every writable field (PUT).
	FullUpdate
)

type storeOptions struct {
	defaults url.Values
	mode     UpdateMode
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

// WithDefaultQuery sets query parameters sent with every get and list call.
func WithDefaultQuery(q url.Values) StoreOption {
	return func(o *storeOptions) { o.defaults = q }
}

// WithUpdateMode selects partial (default) or full updates.
func WithUpdateMode(m UpdateMode) StoreOption {
	return func(o *storeOptions) { o.mode = m }
}

// Store is the CRUD engine for one resource type.
type Store[T any, P ResourcePtr[T]] struct {
	client   *Client
	defaults url.Values
	mode     UpdateMode
}

// NewStore builds a store for T on top of client.
func NewStore[T any, P ResourcePtr[T]](client *Client, opts ...StoreOption) *Store[T, P] {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T, P]{client: client, defaults: o.defaults, mode: o.mode}
}

// Client returns the transport the store uses.
func (s *Store[T, P]) Client() *Client { return s.client }

func (s *Store[T, P]) proto() P { return P(new(T)) }

func (s *Store[T, P]) endpoint() string { return s.proto().Endpoint() }

func (s *Store[T, P]) schema() *Schema { return s.proto().Schema() }

// query merges caller parameters over the store defaults.
func (s *Store[T, P]) query(q url.Values) url.Values {
	if len(s.defaults) == 0 && len(q) == 0 {
		return nil
	}
	merged := url.Values{}
	for k, v := range s.defaults {
		merged[k] = append([]string(nil), v...)
	}
	for k, v := range q {
		merged[k] = append([]string(nil), v...)
	}
	return merged
}

// Get fetches one record by id.
func (s *Store[T, P]) Get(ctx context.Context, id string) (P, error) {
	if id == "" {
		return nil, fmt.Errorf("get %s: %w", s.schema().Resource(), ErrMissingID)
	}
	data, err := s.client.Get(ctx, s.endpoint()+"/"+url.PathEscape(id), s.query(nil))
	if err != nil {
		return nil, err
	}
	r := s.proto()
	if err := populate[T, P](r, data); err != nil {
		return nil, err
	}
	return r, nil
}

// List fetches all records, in server order.
func (s *Store[T, P]) List(ctx context.Context, q url.Values) ([]P, error) {
	data, err := s.client.Get(ctx, s.endpoint(), s.query(q))
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", s.schema().Resource(), err)
	}

	out := make([]P, 0, len(items))
	for _, item := range items {
		r := s.proto()
		if err := populate[T, P](r, item); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Search lists all records and keeps those where every filter field equals
// the given value exactly. Keys are wire or local field names.
func (s *Store[T, P]) Search(ctx context.Context, filters map[string]any) ([]P, error) {
	schema := s.schema()
	wanted := make(map[string]filter, len(filters))
	for name, value := range filters {
		f, err := schema.Lookup(name)
		if err != nil {
			return nil, err
		}
		canonical, err := canonicalValue(value)
		if err != nil {
			return nil, fmt.Errorf("search %s by %s: %w", schema.Resource(), name, err)
		}
		wanted[f.Wire] = filter{kind: f.Kind, value: canonical}
	}

	items, err := s.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	out := make([]P, 0, len(items))
	for _, item := range items {
		if matches(item.state().wire, wanted) {
			out = append(out, item)
		}
	}
	return out, nil
}

type filter struct {
	kind  Kind
	value any
}

// matches compares the fields as the server sent them. An absent key only
// matches a nil filter value.
func matches(fields map[string]json.RawMessage, wanted map[string]filter) bool {
	for wire, want := range wanted {
		var got any
		if raw, ok := fields[wire]; ok {
			if err := json.Unmarshal(raw, &got); err != nil {
				return false
			}
		}
		if !fieldEquals(want.kind, got, want.value) {
			return false
		}
	}
	return true
}

// fieldEquals compares two decoded JSON values. Time fields are compared as
// instants since the server does not always send milliseconds.
func fieldEquals(kind Kind, got, want any) bool {
	if kind == KindTime {
		gs, gok := got.(string)
		ws, wok := want.(string)
		if gok && wok {
			gt, gerr := utils.ParseTime(gs)
			wt, werr := utils.ParseTime(ws)
			if gerr == nil && werr == nil {
				return gt.Equal(wt)
			}
		}
	}
	return reflect.DeepEqual(got, want)
}

// canonicalValue encodes v the way a resource field would be encoded.
func canonicalValue(v any) (any, error) {
	switch val := v.(type) {
	case time.Time:
		v = NewTime(val)
	case *time.Time:
		if val != nil {
			v = NewTime(*val)
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Save creates r when it has no id and updates it otherwise. Required fields
// are checked first; a failure there sends nothing. On success r holds the
// server's response.
func (s *Store[T, P]) Save(ctx context.Context, r P) error {
	schema := r.Schema()
	fields, err := encodeFields(r)
	if err != nil {
		return err
	}
	if err := schema.applyDefaults(fields); err != nil {
		return err
	}
	body := schema.writable(fields)

	var data json.RawMessage
	id := r.ResourceID()
	switch {
	case id == "":
		data, err = s.client.Post(ctx, r.Endpoint(), nil, body)
	case s.mode == FullUpdate:
		data, err = s.client.Put(ctx, r.Endpoint()+"/"+url.PathEscape(id), body)
	default:
		data, err = s.client.Patch(ctx, r.Endpoint()+"/"+url.PathEscape(id), changed(body, r.state().snapshot, schema))
	}
	if err != nil {
		return err
	}
	return populate[T, P](r, data)
}

// Refresh reloads r from the server.
func (s *Store[T, P]) Refresh(ctx context.Context, r P) error {
	id := r.ResourceID()
	if id == "" {
		return fmt.Errorf("refresh %s: %w", r.Schema().Resource(), ErrMissingID)
	}
	data, err := s.client.Get(ctx, r.Endpoint()+"/"+url.PathEscape(id), s.query(nil))
	if err != nil {
		return err
	}
	return populate[T, P](r, data)
}

// Delete removes the record and clears r.
func (s *Store[T, P]) Delete(ctx context.Context, r P) error {
	id := r.ResourceID()
	if id == "" {
		return fmt.Errorf("delete %s: %w", r.Schema().Resource(), ErrMissingID)
	}
	if _, err := s.client.Delete(ctx, r.Endpoint()+"/"+url.PathEscape(id)); err != nil {
		return err
	}
	var zero T
	*r = zero
	return nil
}

// Edit runs fn on r and then saves r exactly once, also when fn fails or panics.
func (s *Store[T, P]) Edit(ctx context.Context, r P, fn func(P) error) (err error) {
	defer func() {
		err = errors.Join(err, s.Save(ctx, r))
	}()
	return fn(r)
}

// populate replaces every field of r with data and records the snapshot and
// the raw wire fields.
func populate[T any, P ResourcePtr[T]](r P, data json.RawMessage) error {
	var fresh T
	if err := json.Unmarshal(data, &fresh); err != nil {
		return fmt.Errorf("decode %s: %w", r.Schema().Resource(), err)
	}
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode %s: %w", r.Schema().Resource(), err)
	}
	snapshot, err := encodeFields(P(&fresh))
	if err != nil {
		return err
	}
	*r = fresh
	r.state().snapshot = snapshot
	r.state().wire = wire
	return nil
}

// encodeFields returns r keyed by wire name.
func encodeFields(r Resource) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Schema().Resource(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Schema().Resource(), err)
	}
	return fields, nil
}

// changed keeps the fields of current that differ from snapshot. Writable
// fields present in snapshot but gone from current are sent as null.
func changed(current, snapshot map[string]json.RawMessage, schema *Schema) map[string]json.RawMessage {
	if snapshot == nil {
		return current
	}
	out := map[string]json.RawMessage{}
	for k, v := range current {
		if prev, ok := snapshot[k]; !ok || !bytes.Equal(prev, v) {
			out[k] = v
		}
	}
	for k := range schema.writable(snapshot) {
		if _, ok := current[k]; !ok {
			out[k] = json.RawMessage("null")
		}
	}
	return out
}
