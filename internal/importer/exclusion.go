package importer

import (
	"strings"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

// ExclusionList 快递员排除名单（去首尾空白、不区分大小写）
type ExclusionList struct {
	names []string
	set   map[string]struct{}
}

// NewExclusionList 创建排除名单，空名称与重复项被忽略
func NewExclusionList(names ...string) ExclusionList {
	l := ExclusionList{set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		key := normalizeCourier(n)
		if key == "" {
			continue
		}
		if _, ok := l.set[key]; ok {
			continue
		}
		l.set[key] = struct{}{}
		l.names = append(l.names, strings.TrimSpace(n))
	}
	return l
}

func normalizeCourier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Len 名单长度
func (l ExclusionList) Len() int {
	return len(l.set)
}

// Names 名单内容（保留首次出现的写法）
func (l ExclusionList) Names() []string {
	return append([]string(nil), l.names...)
}

// Contains 快递员是否在名单中
func (l ExclusionList) Contains(courierID string) bool {
	if len(l.set) == 0 {
		return false
	}
	_, ok := l.set[normalizeCourier(courierID)]
	return ok
}

// Filter 过滤名单内快递员的记录，返回保留的记录与丢弃数量
func (l ExclusionList) Filter(records []model.CanonicalRecord) ([]model.CanonicalRecord, int) {
	if l.Len() == 0 {
		return records, 0
	}
	kept := make([]model.CanonicalRecord, 0, len(records))
	for _, r := range records {
		if l.Contains(r.CourierID) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}
