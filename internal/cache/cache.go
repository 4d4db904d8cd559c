// Package cache is a normalized response cache. Entities live under a
// (typename, id) key regardless of which query produced them, so a
// mutation visible through one query is visible through all queries that
// reference the entity. List results are stored as ordered key slices
// under an identity derived from their filter arguments; merge behaviour
// per relationship field comes from the declarative policy table in
// policy.go.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Key identifies one cached entity.
type Key struct {
	Typename string
	ID       string
}

func (k Key) String() string {
	return k.Typename + ":" + k.ID
}

// ref is a pointer from one entity's field to another entity.
type ref struct {
	key Key
}

// Cache stores partial entity graphs keyed by (typename, id). All methods
// are safe for concurrent use; one write call is atomic with respect to
// readers.
type Cache struct {
	mu       sync.Mutex
	entities map[Key]map[string]any
	lists    map[string][]Key
	roots    map[string]Key
}

// New creates an empty cache.
func New() *Cache {
	c := &Cache{}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.entities = make(map[Key]map[string]any)
	c.lists = make(map[string][]Key)
	c.roots = make(map[string]Key)
}

// WriteList merges a root-level list response into the cache. field is the
// query root field ("projects", "tasks", ...), args the request variables
// (offset decides append vs replace under the PaginatedAppend policy), and
// items the decoded response objects.
func (c *Cache) WriteList(field string, args map[string]any, items []any) {
	typename, ok := typenameFor("Query", field)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if key, ok := c.normalize(typename, obj); ok {
			keys = append(keys, key)
		}
	}

	id := listID(field, args)
	if policyFor("Query", field) == PaginatedAppend && intArg(args, "offset") > 0 {
		existing := c.lists[id]
		seen := make(map[Key]bool, len(existing))
		for _, k := range existing {
			seen[k] = true
		}
		merged := append([]Key{}, existing...)
		for _, k := range keys {
			if !seen[k] {
				merged = append(merged, k)
				seen[k] = true
			}
		}
		c.lists[id] = merged
		return
	}
	c.lists[id] = keys
}

// WriteEntityQuery merges a root-level single-entity response ("project",
// "organization", ...) and records the root reference so the same query
// can later be served from cache.
func (c *Cache) WriteEntityQuery(field string, args map[string]any, obj map[string]any) {
	typename, ok := typenameFor("Query", field)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.normalize(typename, obj); ok {
		c.roots[rootID(field, args)] = key
	}
}

// WriteEntity merges one entity object (typically from a mutation
// response) and returns its key.
func (c *Cache) WriteEntity(typename string, obj map[string]any) (Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.normalize(typename, obj)
}

// PrependToList inserts key at the front of the identified list entry, if
// that entry exists. Lists never fetched are left alone; the next fetch
// will include the new entity anyway.
func (c *Cache) PrependToList(field string, args map[string]any, key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := listID(field, args)
	existing, ok := c.lists[id]
	if !ok {
		return
	}
	merged := make([]Key, 0, len(existing)+1)
	merged = append(merged, key)
	for _, k := range existing {
		if k != key {
			merged = append(merged, k)
		}
	}
	c.lists[id] = merged
}

// AppendToList adds key at the end of the identified list entry, if that
// entry exists. Already-present keys keep their position.
func (c *Cache) AppendToList(field string, args map[string]any, key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := listID(field, args)
	existing, ok := c.lists[id]
	if !ok {
		return
	}
	for _, k := range existing {
		if k == key {
			return
		}
	}
	c.lists[id] = append(existing, key)
}

// ReadList returns the materialized list for (field, args), or ok=false
// when the list was never written or any referenced entity is missing.
func (c *Cache) ReadList(field string, args map[string]any) ([]map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, ok := c.lists[listID(field, args)]
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		obj, ok := c.denormalize(key, map[Key]bool{})
		if !ok {
			return nil, false
		}
		out = append(out, obj)
	}
	return out, true
}

// ReadEntityQuery returns the materialized entity previously written for
// this root field + args, or ok=false on a miss.
func (c *Cache) ReadEntityQuery(field string, args map[string]any) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, ok := c.roots[rootID(field, args)]
	if !ok {
		return nil, false
	}
	return c.denormalize(key, map[Key]bool{})
}

// ReadEntity returns the materialized entity under (typename, id).
func (c *Cache) ReadEntity(typename, id string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.denormalize(Key{typename, id}, map[Key]bool{})
}

// Evict drops the entity under (typename, id). References pointing at it
// go dangling; reads through them miss until the next fetch, and GC
// sweeps whatever became unreachable.
func (c *Cache) Evict(typename, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entities, Key{typename, id})
}

// GC removes every entity no longer reachable from a list entry or a
// recorded root reference. Returns the number of entities collected.
func (c *Cache) GC() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	reachable := make(map[Key]bool)
	var mark func(Key)
	mark = func(key Key) {
		if reachable[key] {
			return
		}
		fields, ok := c.entities[key]
		if !ok {
			return
		}
		reachable[key] = true
		for _, v := range fields {
			switch val := v.(type) {
			case ref:
				mark(val.key)
			case []any:
				for _, item := range val {
					if r, ok := item.(ref); ok {
						mark(r.key)
					}
				}
			}
		}
	}

	for _, keys := range c.lists {
		for _, key := range keys {
			mark(key)
		}
	}
	for _, key := range c.roots {
		mark(key)
	}

	collected := 0
	for key := range c.entities {
		if !reachable[key] {
			delete(c.entities, key)
			collected++
		}
	}
	return collected
}

// Clear wipes the whole cache (the logout-equivalent action).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Len reports the number of cached entities and list entries.
func (c *Cache) Len() (entities, lists int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entities), len(c.lists)
}

// normalize merges obj into the entity table, replacing nested entity
// objects with refs. Objects without a string id cannot be normalized.
// Caller holds c.mu.
func (c *Cache) normalize(typename string, obj map[string]any) (Key, bool) {
	id, ok := obj["id"].(string)
	if !ok || id == "" {
		return Key{}, false
	}
	key := Key{typename, id}

	fields := c.entities[key]
	if fields == nil {
		fields = make(map[string]any)
		c.entities[key] = fields
	}

	for name, value := range obj {
		childType, isRel := typenameFor(typename, name)
		if !isRel {
			// Scalar merge is last-write-wins per field.
			fields[name] = value
			continue
		}
		switch v := value.(type) {
		case map[string]any:
			if childKey, ok := c.normalize(childType, v); ok {
				fields[name] = ref{childKey}
			} else {
				fields[name] = value
			}
		case []any:
			refs := make([]any, 0, len(v))
			for _, item := range v {
				child, ok := item.(map[string]any)
				if !ok {
					refs = append(refs, item)
					continue
				}
				if childKey, ok := c.normalize(childType, child); ok {
					refs = append(refs, ref{childKey})
				} else {
					refs = append(refs, item)
				}
			}
			// Nested relationship lists always follow the Replace policy.
			fields[name] = refs
		case nil:
			fields[name] = nil
		default:
			fields[name] = value
		}
	}
	return key, true
}

// denormalize materializes the entity under key, resolving refs
// recursively. A dangling ref anywhere in the tree makes the whole read
// a miss. Caller holds c.mu.
func (c *Cache) denormalize(key Key, seen map[Key]bool) (map[string]any, bool) {
	fields, ok := c.entities[key]
	if !ok {
		return nil, false
	}
	if seen[key] {
		// Selection documents are trees, so this only triggers on
		// malformed data; return the id to break the cycle.
		return map[string]any{"id": key.ID}, true
	}
	seen[key] = true
	defer delete(seen, key)

	out := make(map[string]any, len(fields))
	for name, value := range fields {
		switch v := value.(type) {
		case ref:
			child, ok := c.denormalize(v.key, seen)
			if !ok {
				return nil, false
			}
			out[name] = child
		case []any:
			items := make([]any, 0, len(v))
			for _, item := range v {
				if r, ok := item.(ref); ok {
					child, ok := c.denormalize(r.key, seen)
					if !ok {
						return nil, false
					}
					items = append(items, child)
					continue
				}
				items = append(items, item)
			}
			out[name] = items
		default:
			out[name] = value
		}
	}
	return out, true
}

// listID canonicalizes (field, args) into the list identity. Only the
// field's declared key arguments participate; limit, offset and ordering
// are excluded so pages of one logical list merge together.
func listID(field string, args map[string]any) string {
	keyArgs, ok := listKeyArgs[field]
	if !ok {
		keyArgs = fallbackKeyArgs(args)
	}
	parts := make([]string, 0, len(keyArgs))
	for _, name := range keyArgs {
		if v, ok := args[name]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%s:%v", name, v))
		}
	}
	return field + "(" + strings.Join(parts, ",") + ")"
}

// rootID canonicalizes a single-entity root field; all arguments
// participate, sorted for stability.
func rootID(field string, args map[string]any) string {
	parts := make([]string, 0, len(args))
	for name, v := range args {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s:%v", name, v))
		}
	}
	sort.Strings(parts)
	return field + "(" + strings.Join(parts, ",") + ")"
}

func fallbackKeyArgs(args map[string]any) []string {
	names := make([]string, 0, len(args))
	for name := range args {
		if name == "limit" || name == "offset" || name == "orderBy" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func intArg(args map[string]any, name string) int {
	switch v := args[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
