package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"orderdash/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func result(rows int) *model.PipelineResult {
	return &model.PipelineResult{Summary: model.PipelineSummary{ReferenceYear: 2025, TotalRows: rows}}
}

// TestNewDatasetStore_Empty 新建存储为空，Latest 返回“暂无数据”
func TestNewDatasetStore_Empty(t *testing.T) {
	s := NewDatasetStore(Options{})
	if s.Count() != 0 {
		t.Fatalf("new store should be empty, got %d", s.Count())
	}
	if _, err := s.Latest(); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("Latest on empty store want ErrDatasetNotFound, got %v", err)
	}
}

// TestPutAndGet 保存后可按 ID 读取，且成为最新数据集
func TestPutAndGet(t *testing.T) {
	s := NewDatasetStore(Options{})

	ds := s.Put("orders.csv", result(3))
	if ds.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := s.Get(ds.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Filename != "orders.csv" || got.Result.Summary.TotalRows != 3 {
		t.Errorf("unexpected dataset: %+v", got)
	}

	latest, err := s.Latest()
	if err != nil || latest.ID != ds.ID {
		t.Fatalf("Latest want %s, got %v (err=%v)", ds.ID, latest, err)
	}
}

// TestGetNotFound 获取不存在的数据集
func TestGetNotFound(t *testing.T) {
	s := NewDatasetStore(Options{})
	if _, err := s.Get("missing"); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("want ErrDatasetNotFound, got %v", err)
	}
}

// TestTTLExpiry 过期后不可读取，也不出现在列表中
func TestTTLExpiry(t *testing.T) {
	clock := newClock()
	s := NewDatasetStore(Options{TTL: time.Hour, Now: clock.Now})

	ds := s.Put("a.csv", result(1))
	clock.Advance(59 * time.Minute)
	if _, err := s.Get(ds.ID); err != nil {
		t.Fatalf("dataset should still be alive: %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, err := s.Get(ds.ID); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("dataset should have expired, got %v", err)
	}
	if _, err := s.Latest(); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("latest should have expired, got %v", err)
	}
	if n := len(s.List()); n != 0 {
		t.Fatalf("expired dataset listed, got %d items", n)
	}
}

// TestCapacityEvictsOldest 超出容量时淘汰最早上传的数据集
func TestCapacityEvictsOldest(t *testing.T) {
	clock := newClock()
	s := NewDatasetStore(Options{Capacity: 2, Now: clock.Now})

	first := s.Put("1.csv", result(1))
	clock.Advance(time.Second)
	second := s.Put("2.csv", result(2))
	clock.Advance(time.Second)
	third := s.Put("3.csv", result(3))

	if _, err := s.Get(first.ID); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("oldest dataset should be evicted")
	}
	for _, id := range []string{second.ID, third.ID} {
		if _, err := s.Get(id); err != nil {
			t.Fatalf("dataset %s should remain: %v", id, err)
		}
	}

	list := s.List()
	if len(list) != 2 || list[0].ID != third.ID || !list[0].Latest || list[1].Latest {
		t.Fatalf("unexpected list order: %+v", list)
	}
	if list[0].Summary.TotalRows != 3 {
		t.Errorf("summary not carried into list: %+v", list[0].Summary)
	}
}

// TestDeleteLatestPromotesNewest 删除最新数据集后，剩余最新的成为 Latest
func TestDeleteLatestPromotesNewest(t *testing.T) {
	clock := newClock()
	s := NewDatasetStore(Options{Now: clock.Now})

	older := s.Put("old.csv", result(1))
	clock.Advance(time.Minute)
	newer := s.Put("new.csv", result(2))

	if err := s.Delete(newer.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	latest, err := s.Latest()
	if err != nil || latest.ID != older.ID {
		t.Fatalf("Latest want %s, got %v (err=%v)", older.ID, latest, err)
	}

	if err := s.Delete(newer.ID); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("second delete want ErrDatasetNotFound, got %v", err)
	}
}

// TestConcurrentAccess 并发读写
func TestConcurrentAccess(t *testing.T) {
	s := NewDatasetStore(Options{Capacity: 8})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s.Put("c.csv", result(n))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.Latest()
			_ = s.List()
		}()
	}
	wg.Wait()

	if n := s.Count(); n == 0 || n > 8 {
		t.Fatalf("unexpected count after concurrent puts: %d", n)
	}
}
