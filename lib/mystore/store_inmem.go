package mystore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

// txScope lists the in-memory stores locked by the enclosing transactions.
type txScope struct {
	owner  any
	parent *txScope
}

func (s *txScope) holds(store any) bool {
	for scope := s; scope != nil; scope = scope.parent {
		if scope.owner == store {
			return true
		}
	}
	return false
}

type InMemoryStore[T any] struct {
	sync.Mutex
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

// RunInTransaction holds the store lock for the duration of f and restores the previous
// content when f fails.
func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	scope, _ := c.Value(ctxTransactionKey{}).(*txScope)
	if scope.holds(s) {
		// already inside a transaction on this store
		return f(c)
	}

	s.Lock()
	defer s.Unlock()

	backup := make(map[string]T, len(s.Items))
	for k, v := range s.Items {
		backup[k] = v
	}

	err := f(context.WithValue(c, ctxTransactionKey{}, &txScope{owner: s, parent: scope}))
	if err != nil {
		s.Items = backup
		return err
	}

	return nil
}

func (s *InMemoryStore[T]) lockUnlessTransactional(c context.Context) func() {
	scope, _ := c.Value(ctxTransactionKey{}).(*txScope)
	if scope.holds(s) {
		return func() {}
	}
	s.Lock()
	return s.Unlock
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	unlock := s.lockUnlessTransactional(c)
	defer unlock()

	s.Items[uid] = value

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	unlock := s.lockUnlessTransactional(c)
	defer unlock()

	result, exists := s.Items[uid]

	return result, exists, nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	unlock := s.lockUnlessTransactional(c)
	defer unlock()

	uids := make([]string, 0, len(s.Items))
	for uid := range s.Items {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	result := make([]T, 0, len(s.Items))
	for _, uid := range uids {
		result = append(result, s.Items[uid])
	}

	return result, nil
}

// Query supports equality filters on exported fields, which is all the callers need.
func (s *InMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	all, err := s.List(c)
	if err != nil {
		return nil, err
	}

	result := []T{}
	for _, item := range all {
		matches, err := matchesAll(item, filters)
		if err != nil {
			return nil, err
		}
		if matches {
			result = append(result, item)
		}
	}

	if orderByField != "" {
		sort.SliceStable(result, func(i, j int) bool {
			return lessByField(result[i], result[j], orderByField)
		})
	}

	return result, nil
}

func matchesAll(item any, filters []Filter) (bool, error) {
	for _, f := range filters {
		if f.Compare != "=" {
			return false, fmt.Errorf("unsupported comparison %q on field %s", f.Compare, f.Field)
		}
		field := reflect.Indirect(reflect.ValueOf(item)).FieldByName(f.Field)
		if !field.IsValid() {
			return false, fmt.Errorf("unknown field %s", f.Field)
		}
		if !reflect.DeepEqual(field.Interface(), f.Value) {
			return false, nil
		}
	}
	return true, nil
}

func lessByField(a, b any, fieldName string) bool {
	fa := reflect.Indirect(reflect.ValueOf(a)).FieldByName(fieldName)
	fb := reflect.Indirect(reflect.ValueOf(b)).FieldByName(fieldName)
	if !fa.IsValid() || !fb.IsValid() {
		return false
	}
	switch va := fa.Interface().(type) {
	case string:
		return va < fb.Interface().(string)
	case int:
		return va < fb.Interface().(int)
	case int64:
		return va < fb.Interface().(int64)
	case time.Time:
		return va.Before(fb.Interface().(time.Time))
	default:
		return false
	}
}
