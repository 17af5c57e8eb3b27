package lookupcache

import (
	"testing"

	"github.com/google/uuid"
)

func TestGetMiss(t *testing.T) {
	c := New(2)
	if _, ok := c.Get("a.txt"); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestPutThenGet(t *testing.T) {
	c := New(2)
	ss := uuid.New()
	c.Put("a.txt", ss)

	got, ok := c.Get("a.txt")
	if !ok || got != ss {
		t.Fatalf("Get() = %v, %v, want %v, true", got, ok, ss)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	s1, s2, s3 := uuid.New(), uuid.New(), uuid.New()

	c.Put("a.txt", s1)
	c.Put("b.txt", s2)
	c.Put("c.txt", s3) // evicts a.txt, the LRU entry

	if _, ok := c.Get("a.txt"); ok {
		t.Fatal("expected a.txt evicted")
	}
	if _, ok := c.Get("b.txt"); !ok {
		t.Fatal("expected b.txt to survive")
	}
	if _, ok := c.Get("c.txt"); !ok {
		t.Fatal("expected c.txt to survive")
	}
}

func TestGetPromotesToMostRecentlyUsed(t *testing.T) {
	c := New(2)
	s1, s2, s3 := uuid.New(), uuid.New(), uuid.New()

	c.Put("a.txt", s1)
	c.Put("b.txt", s2)
	c.Get("a.txt") // a.txt is now most-recently-used
	c.Put("c.txt", s3) // should evict b.txt instead of a.txt

	if _, ok := c.Get("b.txt"); ok {
		t.Fatal("expected b.txt evicted after a.txt was promoted")
	}
	if _, ok := c.Get("a.txt"); !ok {
		t.Fatal("expected a.txt to survive")
	}
}

func TestInvalidate(t *testing.T) {
	c := New(2)
	c.Put("a.txt", uuid.New())
	c.Invalidate("a.txt")

	if _, ok := c.Get("a.txt"); ok {
		t.Fatal("expected a.txt gone after Invalidate")
	}
}

func TestInvalidateSS(t *testing.T) {
	c := New(4)
	ss1, ss2 := uuid.New(), uuid.New()
	c.Put("a.txt", ss1)
	c.Put("b.txt", ss1)
	c.Put("c.txt", ss2)

	c.InvalidateSS(ss1)

	if _, ok := c.Get("a.txt"); ok {
		t.Fatal("expected a.txt purged")
	}
	if _, ok := c.Get("b.txt"); ok {
		t.Fatal("expected b.txt purged")
	}
	if _, ok := c.Get("c.txt"); !ok {
		t.Fatal("expected c.txt untouched")
	}
}

func TestDefaultSizeUsedForNonPositive(t *testing.T) {
	c := New(0)
	if c.size != DefaultSize {
		t.Fatalf("size = %d, want %d", c.size, DefaultSize)
	}
}
