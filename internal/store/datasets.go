// Package store 会话内的数据集存储：只保存聚合结果，不落盘，过期或超出容量后淘汰。
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"orderdash/internal/model"
)

// ErrDatasetNotFound 数据集不存在或已过期
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset 一次上传对应的聚合结果
type Dataset struct {
	ID         string                `json:"id"`
	Filename   string                `json:"filename"`
	UploadedAt time.Time             `json:"uploadedAt"`
	Result     *model.PipelineResult `json:"-"`
	expiresAt  time.Time
}

// DatasetInfo 列表展示用的数据集摘要
type DatasetInfo struct {
	ID         string                `json:"id"`
	Filename   string                `json:"filename"`
	UploadedAt time.Time             `json:"uploadedAt"`
	Summary    model.PipelineSummary `json:"summary"`
	Latest     bool                  `json:"latest"`
}

// Options 存储选项
type Options struct {
	TTL      time.Duration // <=0 表示不过期
	Capacity int           // <=0 表示不限
	Now      func() time.Time
}

// DatasetStore 内存数据集存储
type DatasetStore struct {
	mu       sync.RWMutex
	items    map[string]*Dataset
	latestID string
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// NewDatasetStore 创建存储
func NewDatasetStore(opts Options) *DatasetStore {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &DatasetStore{
		items:    make(map[string]*Dataset),
		ttl:      opts.TTL,
		capacity: opts.Capacity,
		now:      now,
	}
}

// Put 保存结果并设为最新数据集
func (s *DatasetStore) Put(filename string, result *model.PipelineResult) *Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	ds := &Dataset{
		ID:         uuid.New().String(),
		Filename:   filename,
		UploadedAt: now,
		Result:     result,
	}
	if s.ttl > 0 {
		ds.expiresAt = now.Add(s.ttl)
	}
	s.items[ds.ID] = ds
	s.latestID = ds.ID

	if s.capacity > 0 {
		for len(s.items) > s.capacity {
			s.evictOldestLocked()
		}
	}
	return ds
}

// Get 按 ID 获取
func (s *DatasetStore) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.items[id]
	if !ok || s.expired(ds, s.now()) {
		return nil, ErrDatasetNotFound
	}
	return ds, nil
}

// Latest 最近一次上传的数据集；尚无数据时返回 ErrDatasetNotFound
func (s *DatasetStore) Latest() (*Dataset, error) {
	s.mu.RLock()
	id := s.latestID
	s.mu.RUnlock()

	if id == "" {
		return nil, ErrDatasetNotFound
	}
	return s.Get(id)
}

// List 按上传时间倒序列出未过期的数据集
func (s *DatasetStore) List() []DatasetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]DatasetInfo, 0, len(s.items))
	for _, ds := range s.items {
		if s.expired(ds, now) {
			continue
		}
		info := DatasetInfo{
			ID:         ds.ID,
			Filename:   ds.Filename,
			UploadedAt: ds.UploadedAt,
			Latest:     ds.ID == s.latestID,
		}
		if ds.Result != nil {
			info.Summary = ds.Result.Summary
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].Latest && !out[j].Latest
	})
	return out
}

// Delete 删除数据集；删除最新数据集后由剩余中最新的一个接替
func (s *DatasetStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrDatasetNotFound
	}
	delete(s.items, id)
	if s.latestID == id {
		s.latestID = s.newestIDLocked()
	}
	return nil
}

// Count 未过期数据集数量
func (s *DatasetStore) Count() int {
	return len(s.List())
}

func (s *DatasetStore) expired(ds *Dataset, now time.Time) bool {
	return !ds.expiresAt.IsZero() && now.After(ds.expiresAt)
}

func (s *DatasetStore) purgeExpiredLocked(now time.Time) {
	for id, ds := range s.items {
		if s.expired(ds, now) {
			delete(s.items, id)
		}
	}
	if _, ok := s.items[s.latestID]; !ok {
		s.latestID = s.newestIDLocked()
	}
}

func (s *DatasetStore) evictOldestLocked() {
	var oldest *Dataset
	for _, ds := range s.items {
		if ds.ID == s.latestID {
			continue
		}
		if oldest == nil || ds.UploadedAt.Before(oldest.UploadedAt) {
			oldest = ds
		}
	}
	if oldest == nil {
		return
	}
	delete(s.items, oldest.ID)
}

func (s *DatasetStore) newestIDLocked() string {
	var newest *Dataset
	for _, ds := range s.items {
		if newest == nil || ds.UploadedAt.After(newest.UploadedAt) {
			newest = ds
		}
	}
	if newest == nil {
		return ""
	}
	return newest.ID
}
