package analytics

import (
	"sort"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

const unknownKey = "Unknown"

// TrendPoint 按日期汇总
type TrendPoint struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Delivered int    `json:"delivered"`
}

// DepartmentStat 按网点汇总
type DepartmentStat struct {
	Name        string  `json:"name"`
	Loaded      int     `json:"loaded"`
	Delivered   int     `json:"delivered"`
	SuccessRate float64 `json:"successRate"`
}

// MethodStat 按配送方式汇总
type MethodStat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// CourierStat 快递员排行
type CourierStat struct {
	Courier      string  `json:"courier"`
	Loaded       int     `json:"loaded"`
	Delivered    int     `json:"delivered"`
	Undelivered  int     `json:"undelivered"`
	DeliveryRate float64 `json:"deliveryRate"`
}

// Trend 按日期汇总装载量与送达量，日期升序
func Trend(records []model.CanonicalRecord) []TrendPoint {
	index := map[string]int{}
	var out []TrendPoint
	for _, r := range records {
		key := orUnknown(r.Date)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, TrendPoint{Date: key})
		}
		out[i].Total++
		if IsDelivered(r.Status) {
			out[i].Delivered++
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return CompareDates(out[a].Date, out[b].Date) < 0
	})
	return out
}

// ByDepartment 按网点汇总，成功率降序
func ByDepartment(records []model.CanonicalRecord) []DepartmentStat {
	index := map[string]int{}
	var out []DepartmentStat
	for _, r := range records {
		key := orUnknown(r.Department)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, DepartmentStat{Name: key})
		}
		out[i].Loaded++
		if IsDelivered(r.Status) {
			out[i].Delivered++
		}
	}
	for i := range out {
		out[i].SuccessRate = percent(out[i].Delivered, out[i].Loaded)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].SuccessRate > out[b].SuccessRate
	})
	return out
}

// ByMethod 按归一化配送方式计数，数量降序
func ByMethod(records []model.CanonicalRecord) []MethodStat {
	index := map[string]int{}
	var out []MethodStat
	for _, r := range records {
		key := NormalizeMethodName(r.DeliveryMethod, r.SafePlace)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MethodStat{Name: key})
		}
		out[i].Value++
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Value > out[b].Value
	})
	return out
}

// CourierRanking 快递员排行：送达量降序，其次装载量降序，再按名称
func CourierRanking(records []model.CanonicalRecord) []CourierStat {
	index := map[string]int{}
	var out []CourierStat
	for _, r := range records {
		key := orUnknown(r.CourierID)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CourierStat{Courier: key})
		}
		out[i].Loaded++
		switch {
		case IsDelivered(r.Status):
			out[i].Delivered++
		case IsUndelivered(r.Status):
			out[i].Undelivered++
		}
	}
	for i := range out {
		out[i].DeliveryRate = percent(out[i].Delivered, out[i].Loaded)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Delivered != out[b].Delivered {
			return out[a].Delivered > out[b].Delivered
		}
		if out[a].Loaded != out[b].Loaded {
			return out[a].Loaded > out[b].Loaded
		}
		return out[a].Courier < out[b].Courier
	})
	return out
}

// DensityPoint 单日装载量与不同地址数
type DensityPoint struct {
	Date      string  `json:"date"`
	Loaded    int     `json:"loaded"`
	Addresses int     `json:"addresses"`
	Density   float64 `json:"density"`
}

// Density 按日期统计每个地址的平均件数，日期升序；空地址不计入地址数
func Density(records []model.CanonicalRecord) []DensityPoint {
	index := map[string]int{}
	var out []DensityPoint
	var addrs []map[string]struct{}
	for _, r := range records {
		key := orUnknown(r.Date)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, DensityPoint{Date: key})
			addrs = append(addrs, map[string]struct{}{})
		}
		out[i].Loaded++
		if r.Address != "" {
			addrs[i][r.Address] = struct{}{}
		}
	}
	for i := range out {
		out[i].Addresses = len(addrs[i])
		if out[i].Addresses > 0 {
			out[i].Density = round(float64(out[i].Loaded)/float64(out[i].Addresses), 2)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return CompareDates(out[a].Date, out[b].Date) < 0
	})
	return out
}

// CourierDay 快递员单日的装载与送达
type CourierDay struct {
	Loaded    int     `json:"loaded"`
	Delivered int     `json:"delivered"`
	Rate      float64 `json:"rate"`
}

// CourierRow 热力图的一行
type CourierRow struct {
	Courier     string                `json:"courier"`
	Dates       map[string]CourierDay `json:"dates"`
	TotalVolume int                   `json:"totalVolume"`
}

// Heatmap 快递员 × 日期矩阵
type Heatmap struct {
	Couriers []CourierRow `json:"couriers"`
	Dates    []string     `json:"dates"`
}

// CourierHeatmap 快递员 × 日期热力图：行按总件数降序，列按日期升序
func CourierHeatmap(records []model.CanonicalRecord) Heatmap {
	index := map[string]int{}
	rows := []CourierRow{}
	seenDates := map[string]bool{}
	dates := []string{}
	for _, r := range records {
		courier := orUnknown(r.CourierID)
		date := orUnknown(r.Date)
		if !seenDates[date] {
			seenDates[date] = true
			dates = append(dates, date)
		}
		i, ok := index[courier]
		if !ok {
			i = len(rows)
			index[courier] = i
			rows = append(rows, CourierRow{Courier: courier, Dates: map[string]CourierDay{}})
		}
		rows[i].TotalVolume++
		day := rows[i].Dates[date]
		day.Loaded++
		if IsDelivered(r.Status) {
			day.Delivered++
		}
		rows[i].Dates[date] = day
	}
	for i := range rows {
		for d, day := range rows[i].Dates {
			day.Rate = percent(day.Delivered, day.Loaded)
			rows[i].Dates[d] = day
		}
	}
	sort.SliceStable(dates, func(a, b int) bool {
		return CompareDates(dates[a], dates[b]) < 0
	})
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].TotalVolume > rows[b].TotalVolume
	})
	return Heatmap{Couriers: rows, Dates: dates}
}

func orUnknown(s string) string {
	if s == "" {
		return unknownKey
	}
	return s
}
