package analytics

import (
	"math"
	"strings"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

// KPIs 看板汇总指标
type KPIs struct {
	TotalDocs             int            `json:"totalDocs"`
	TotalParcels          int            `json:"totalParcels"` // 与 TotalDocs 相同，按行计
	DeliveredCount        int            `json:"deliveredCount"`
	DeliveryRate          float64        `json:"deliveryRate"` // 百分比，保留 1 位
	OnTimeCount           int            `json:"onTimeCount"`
	OnTimeRate            float64        `json:"onTimeRate"`
	UniqueCouriers        int            `json:"uniqueCouriers"`
	UniqueRoutes          int            `json:"uniqueRoutes"`
	Efficiency            float64        `json:"efficiency"` // 装载量 / 去重地址数，保留 2 位
	HandDeliveryCount     int            `json:"handDeliveryCount"`
	SafePlaceCount        int            `json:"safePlaceCount"`
	UndeliveredCount      int            `json:"undeliveredCount"`
	NoReasonCount         int            `json:"noReasonCount"`
	UndeliveredWithReason int            `json:"undeliveredWithReason"`
	ReasonsBreakdown      map[string]int `json:"reasonsBreakdown"`
}

// CalculateKPIs 计算汇总指标
func CalculateKPIs(records []model.CanonicalRecord) KPIs {
	k := KPIs{ReasonsBreakdown: map[string]int{}}
	total := len(records)
	if total == 0 {
		return k
	}
	k.TotalDocs = total
	k.TotalParcels = total

	couriers := map[string]struct{}{}
	routes := map[string]struct{}{}
	addresses := map[string]struct{}{}

	for _, r := range records {
		if r.CourierID != "" {
			couriers[r.CourierID] = struct{}{}
		}
		if r.RouteCode != "" {
			routes[r.RouteCode] = struct{}{}
		}
		if r.Address != "" {
			addresses[r.Address] = struct{}{}
		}

		switch {
		case IsDelivered(r.Status):
			k.DeliveredCount++
			if isOnTime(r) {
				k.OnTimeCount++
			}
		case IsUndelivered(r.Status):
			reason := strings.TrimSpace(r.Reason)
			if reason == "" {
				k.NoReasonCount++
			} else {
				k.UndeliveredWithReason++
				k.ReasonsBreakdown[reason]++
			}
		}

		if IsHandDelivery(r.DeliveryMethod) {
			k.HandDeliveryCount++
		}
		if IsSafePlace(r.DeliveryMethod, r.SafePlace) {
			k.SafePlaceCount++
		}
	}

	k.DeliveryRate = percent(k.DeliveredCount, total)
	k.OnTimeRate = percent(k.OnTimeCount, total)
	k.UniqueCouriers = len(couriers)
	k.UniqueRoutes = len(routes)
	if len(addresses) > 0 {
		k.Efficiency = round(float64(total)/float64(len(addresses)), 2)
	}
	k.UndeliveredCount = k.UndeliveredWithReason + k.NoReasonCount
	return k
}

// isOnTime 已送达且执行日期与计划日期一致；无计划日期视为准时
func isOnTime(r model.CanonicalRecord) bool {
	if strings.TrimSpace(r.PlannedDate) == "" {
		return true
	}
	if r.ExecutionDate == "" {
		return false
	}
	return r.ExecutionDate == r.PlannedDate || IsSameDay(r.ExecutionDate, r.PlannedDate)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(part)/float64(total)*100, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
