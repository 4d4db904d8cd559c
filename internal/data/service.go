// Package data binds operations to the response cache and the global
// store. Query bindings expose {data, loading, error} snapshots with
// refetch and pagination helpers; mutation methods patch the cache,
// update the store's denormalized copies and enqueue notifications.
// Errors never escape this layer as panics; callers always receive the
// structured payload or nil alongside an already-notified error.
package data

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/trellis-pm/trellis/internal/api"
	"github.com/trellis-pm/trellis/internal/appstate"
	"github.com/trellis-pm/trellis/internal/cache"
	"github.com/trellis-pm/trellis/internal/model"
)

// Client is the part of the API client the bindings need. *api.Client
// satisfies it; tests substitute fakes.
type Client interface {
	Do(ctx context.Context, op api.Operation, out any) (*api.Response, error)
}

// Service owns one client, one cache and one store, and hands out
// bindings that compose them.
type Service struct {
	client Client
	cache  *cache.Cache
	store  *appstate.Store
	sf     singleflight.Group
}

// NewService wires the three layers together.
func NewService(client Client, c *cache.Cache, store *appstate.Store) *Service {
	return &Service{client: client, cache: c, store: store}
}

// Store exposes the global store for the view layer.
func (s *Service) Store() *appstate.Store {
	return s.store
}

// Cache exposes the response cache for management helpers.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// ClearCache wipes the response cache (logout-equivalent action).
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// EvictEntity drops one entity and collects whatever became unreachable.
func (s *Service) EvictEntity(typename, id string) {
	s.cache.Evict(typename, id)
	collected := s.cache.GC()
	log.Debugf("[Cache] evicted %s:%s, gc collected %d", typename, id, collected)
}

// root describes one root field of an operation for cache purposes:
// the field name, the arguments that identify it, and whether it holds a
// list or a single entity.
type root struct {
	field string
	args  map[string]any
	list  bool
}

// runQuery serves an operation from the cache when every root is
// present, and otherwise fetches over the network, coalescing identical
// concurrent requests. The returned map holds one materialized value per
// root field ([]map[string]any for lists, map[string]any for entities).
// Partial data and application errors may both be returned.
func (s *Service) runQuery(ctx context.Context, op api.Operation, roots []root, force bool) (map[string]any, error) {
	if !force {
		if out, ok := s.readRoots(roots); ok {
			return out, nil
		}
	}

	key := flightKey(op)
	res, err, _ := s.sf.Do(key, func() (any, error) {
		resp, err := s.client.Do(ctx, op, nil)
		if err != nil {
			return nil, err
		}

		decoded := map[string]any{}
		if len(resp.Data) > 0 {
			if err := json.Unmarshal(resp.Data, &decoded); err != nil {
				return nil, fmt.Errorf("decode %s data: %w", op.OperationName(), err)
			}
		}
		s.writeRoots(roots, decoded)
		return decoded, resp.Err()
	})
	if err != nil && res == nil {
		return nil, err
	}

	// Prefer the cache view so repeated reads are identical, falling back
	// to the decoded response when a root was only partially returned.
	out, ok := s.readRoots(roots)
	if !ok {
		decoded, _ := res.(map[string]any)
		out = map[string]any{}
		for _, r := range roots {
			out[r.field] = decoded[r.field]
		}
	}
	return out, err
}

// readRoots materializes every root from the cache; one miss fails all.
func (s *Service) readRoots(roots []root) (map[string]any, bool) {
	out := make(map[string]any, len(roots))
	for _, r := range roots {
		if r.list {
			items, ok := s.cache.ReadList(r.field, r.args)
			if !ok {
				return nil, false
			}
			anyItems := make([]any, len(items))
			for i, it := range items {
				anyItems[i] = it
			}
			out[r.field] = anyItems
			continue
		}
		obj, ok := s.cache.ReadEntityQuery(r.field, r.args)
		if !ok {
			return nil, false
		}
		out[r.field] = obj
	}
	return out, true
}

// writeRoots normalizes each root field of a decoded response into the
// cache. One response write is atomic per root.
func (s *Service) writeRoots(roots []root, decoded map[string]any) {
	for _, r := range roots {
		value, ok := decoded[r.field]
		if !ok || value == nil {
			continue
		}
		if r.list {
			if items, ok := value.([]any); ok {
				s.cache.WriteList(r.field, r.args, items)
			}
			continue
		}
		if obj, ok := value.(map[string]any); ok {
			s.cache.WriteEntityQuery(r.field, r.args, obj)
		}
	}
}

// flightKey identifies an in-flight request by operation and variables.
// encoding/json emits map keys in sorted order, so the key is canonical.
func flightKey(op api.Operation) string {
	vars, err := json.Marshal(op.Variables())
	if err != nil {
		vars = []byte("{}")
	}
	return op.OperationName() + string(vars)
}

// decodeAs converts a materialized cache value into a typed entity or
// slice through a JSON round-trip.
func decodeAs[T any](value any) (T, error) {
	var out T
	data, err := json.Marshal(value)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Default messages for business rejections that arrive without one.
const (
	defaultCreateOrganizationError = "Failed to create organization"
	defaultCreateProjectError      = "Failed to create project"
	defaultUpdateProjectError      = "Failed to update project"
	defaultCreateTaskError         = "Failed to create task"
	defaultUpdateTaskError         = "Failed to update task"
	defaultCreateCommentError      = "Failed to add comment"
)

func (s *Service) notifySuccess(message string) {
	s.store.AddNotification(model.NotifySuccess, "Success", message)
}

func (s *Service) notifyError(message, fallback string) {
	if message == "" {
		message = fallback
	}
	s.store.AddNotification(model.NotifyError, "Error", message)
}
