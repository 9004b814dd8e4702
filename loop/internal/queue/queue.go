package queue

import (
	"time"

	"github.com/huandu/skiplist"
	"github.com/segmentio/ksuid"
)

// New creates an empty queue of armed waits
// ordered by due time and, for equal due times, by id.
func New() *Queue {
	return &Queue{
		l: skiplist.New(
			skiplist.GreaterThanFunc(func(a, b interface{}) int {
				k1, k2 := a.(key), b.(key)
				if k1.due.After(k2.due) {
					return 1
				} else if k1.due.Before(k2.due) {
					return -1
				}
				return ksuid.Compare(k1.id, k2.id)
			}),
		),
		due: make(map[ksuid.KSUID]time.Time),
	}
}

// Queue is not safe for concurrent use.
type Queue struct {
	l   *skiplist.SkipList
	due map[ksuid.KSUID]time.Time
}

// Set inserts a wait. An existing wait with the same id is replaced.
func (q *Queue) Set(
	id ksuid.KSUID, due time.Time, fn func(bool),
) (setAtFront bool) {
	q.Remove(id)
	k := key{due: due, id: id}
	e := q.l.Set(k, wait{key: k, Fn: fn})
	q.due[id] = due
	return e.Prev() == nil
}

func (q *Queue) Has(id ksuid.KSUID) bool {
	_, ok := q.due[id]
	return ok
}

// Front returns the wait that is due next.
// fn is nil if the queue is empty.
func (q *Queue) Front() (id ksuid.KSUID, due time.Time, fn func(bool)) {
	if e := q.l.Front(); e != nil {
		v := e.Value.(wait)
		return v.id, v.due, v.Fn
	}
	return ksuid.KSUID{}, time.Time{}, nil
}

// Remove removes the wait and returns its completion func,
// or nil if there is no such wait.
func (q *Queue) Remove(id ksuid.KSUID) (fn func(bool)) {
	due, ok := q.due[id]
	if !ok {
		return nil
	}
	delete(q.due, id)
	e := q.l.Remove(key{due: due, id: id})
	if e == nil {
		return nil
	}
	return e.Value.(wait).Fn
}

func (q *Queue) Len() int {
	return q.l.Len()
}

// Scan calls fn for every wait after the given one in due order
// until fn returns false. Starts from the front if after is zero.
func (q *Queue) Scan(
	after ksuid.KSUID,
	fn func(id ksuid.KSUID, due time.Time) bool,
) (afterFound bool) {
	var start *skiplist.Element
	if after != ksuid.Nil {
		due, ok := q.due[after]
		if !ok {
			return false
		}
		if start = q.l.Get(key{due: due, id: after}); start == nil {
			return false
		}
		start = start.Next()
	} else {
		start = q.l.Front()
	}

	for e := start; e != nil; e = e.Next() {
		w := e.Value.(wait)
		if !fn(w.id, w.due) {
			return true
		}
	}
	return true
}

type key struct {
	due time.Time
	id  ksuid.KSUID
}

// wait is an armed wait descriptor.
type wait struct {
	key
	Fn func(bool)
}
