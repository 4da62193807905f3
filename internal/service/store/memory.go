package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NovobRom/new-delivery-dashboard/internal/analytics"
	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

// Filters 看板筛选条件；空值表示不过滤
type Filters struct {
	DateFrom    string   `json:"dateFrom"` // dd.MM.yyyy 或 yyyy-MM-dd
	DateTo      string   `json:"dateTo"`
	Departments []string `json:"departments"`
	Couriers    []string `json:"couriers"`
}

// IsZero 是否未设置任何条件
func (f Filters) IsZero() bool {
	return f.DateFrom == "" && f.DateTo == "" && len(f.Departments) == 0 && len(f.Couriers) == 0
}

// DateBounds 数据集中可解析日期的最小/最大值
type DateBounds struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

type dataset struct {
	records     []model.CanonicalRecord
	lastUpdated time.Time
}

// MemoryStore 内存数据集存储（配送 / 取件两个数据集 + 筛选状态）
type MemoryStore struct {
	datasets    map[model.DatasetTarget]*dataset
	filters     Filters
	lastUpdated time.Time
	mu          sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{datasets: make(map[model.DatasetTarget]*dataset)}
	for _, t := range model.Targets() {
		s.datasets[t] = &dataset{}
	}
	return s
}

// SetRecords 整体替换目标数据集（不合并），不影响另一个数据集
func (s *MemoryStore) SetRecords(target model.DatasetTarget, records []model.CanonicalRecord) {
	copied := make([]model.CanonicalRecord, len(records))
	copy(copied, records)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[target] = &dataset{records: copied, lastUpdated: now}
	s.lastUpdated = now
}

// Records 获取目标数据集（副本）
func (s *MemoryStore) Records(target model.DatasetTarget) []model.CanonicalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordsLocked(target)
}

func (s *MemoryStore) recordsLocked(target model.DatasetTarget) []model.CanonicalRecord {
	ds, ok := s.datasets[target]
	if !ok {
		return []model.CanonicalRecord{}
	}
	out := make([]model.CanonicalRecord, len(ds.records))
	copy(out, ds.records)
	return out
}

// Count 目标数据集记录数
func (s *MemoryStore) Count(target model.DatasetTarget) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ds, ok := s.datasets[target]; ok {
		return len(ds.records)
	}
	return 0
}

// Clear 清空指定数据集；不传参数时清空全部
func (s *MemoryStore) Clear(targets ...model.DatasetTarget) {
	if len(targets) == 0 {
		targets = model.Targets()
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range targets {
		s.datasets[t] = &dataset{lastUpdated: now}
	}
	s.lastUpdated = now
}

// LastUpdated 最近一次数据变更时间（零值表示从未写入）
func (s *MemoryStore) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// DatasetUpdated 指定数据集的最近变更时间
func (s *MemoryStore) DatasetUpdated(target model.DatasetTarget) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ds, ok := s.datasets[target]; ok {
		return ds.lastUpdated
	}
	return time.Time{}
}

// Filters 当前筛选条件
func (s *MemoryStore) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFilters(s.filters)
}

// SetFilters 设置筛选条件
func (s *MemoryStore) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = cloneFilters(f)
}

// ResetFilters 清除筛选条件
func (s *MemoryStore) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = Filters{}
}

// FilteredRecords 按当前筛选条件过滤目标数据集
//
// 日期无法解析的记录不参与日期过滤（保留）。
func (s *MemoryStore) FilteredRecords(target model.DatasetTarget) []model.CanonicalRecord {
	s.mu.RLock()
	records := s.recordsLocked(target)
	f := s.filters
	s.mu.RUnlock()

	return ApplyFilters(records, f)
}

// ApplyFilters 按筛选条件过滤记录，保持原有顺序
func ApplyFilters(records []model.CanonicalRecord, f Filters) []model.CanonicalRecord {
	if f.IsZero() {
		return records
	}
	from, hasFrom := ParseBound(f.DateFrom)
	to, hasTo := ParseBound(f.DateTo)
	deps := toSet(f.Departments)
	couriers := toSet(f.Couriers)

	out := make([]model.CanonicalRecord, 0, len(records))
	for _, r := range records {
		if hasFrom || hasTo {
			if d, ok := analytics.ParseDate(r.Date); ok {
				if hasFrom && d.Before(from) {
					continue
				}
				if hasTo && d.After(to) {
					continue
				}
			}
		}
		if len(deps) > 0 && !deps[r.Department] {
			continue
		}
		if len(couriers) > 0 && !couriers[r.CourierID] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// UniqueCouriers 去重排序后的快递员列表
func (s *MemoryStore) UniqueCouriers(target model.DatasetTarget) []string {
	return uniqueSorted(s.Records(target), func(r model.CanonicalRecord) string { return r.CourierID })
}

// UniqueDepartments 去重排序后的网点列表
func (s *MemoryStore) UniqueDepartments(target model.DatasetTarget) []string {
	return uniqueSorted(s.Records(target), func(r model.CanonicalRecord) string { return r.Department })
}

// DateBounds 目标数据集的日期范围
func (s *MemoryStore) DateBounds(target model.DatasetTarget) DateBounds {
	var lo, hi time.Time
	for _, r := range s.Records(target) {
		d, ok := analytics.ParseDate(r.Date)
		if !ok {
			continue
		}
		if lo.IsZero() || d.Before(lo) {
			lo = d
		}
		if hi.IsZero() || d.After(hi) {
			hi = d
		}
	}
	if lo.IsZero() {
		return DateBounds{}
	}
	return DateBounds{Min: analytics.FormatDate(lo), Max: analytics.FormatDate(hi)}
}

// ParseBound 解析筛选日期边界：yyyy-MM-dd 或 dd.MM.yyyy
func ParseBound(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return analytics.ParseDate(s)
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

func uniqueSorted(records []model.CanonicalRecord, key func(model.CanonicalRecord) string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range records {
		k := key(r)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func cloneFilters(f Filters) Filters {
	f.Departments = append([]string(nil), f.Departments...)
	f.Couriers = append([]string(nil), f.Couriers...)
	return f
}
