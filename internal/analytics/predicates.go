package analytics

import "strings"

// 配送方式展示名
const (
	MethodHandDelivery = "Hand Delivery"
	MethodPostOffice   = "Post Office"
	MethodSafePlace    = "Safe Place"
	MethodUnknown      = "Unknown"
)

var (
	deliveredStatuses   = map[string]bool{"доставлено": true}
	undeliveredStatuses = map[string]bool{"не доставлено": true}

	handDeliveryKeywords = []string{"hand", "руки", "в руки"}
	safePlaceKeywords    = []string{"safe", "безпечн"}
	postOfficeKeywords   = []string{"post"}
	safePlaceColValues   = map[string]bool{"yes": true, "1": true, "true": true}
)

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// IsDelivered 状态为“доставлено”
func IsDelivered(status string) bool {
	return deliveredStatuses[norm(status)]
}

// IsUndelivered 状态为“не доставлено”
func IsUndelivered(status string) bool {
	return undeliveredStatuses[norm(status)]
}

// IsHandDelivery 配送方式为当面交付
func IsHandDelivery(method string) bool {
	return containsAny(norm(method), handDeliveryKeywords)
}

// IsSafePlaceMethod 配送方式为安全点投放
func IsSafePlaceMethod(method string) bool {
	return containsAny(norm(method), safePlaceKeywords)
}

// IsSafePlaceColumn SafePlace 列取值为 yes/1/true
func IsSafePlaceColumn(v string) bool {
	return safePlaceColValues[norm(v)]
}

// IsSafePlace 配送方式或 SafePlace 列任一命中
func IsSafePlace(method, safePlaceCol string) bool {
	return IsSafePlaceMethod(method) || IsSafePlaceColumn(safePlaceCol)
}

// NormalizeMethodName 归一化配送方式名称，用于分组展示
func NormalizeMethodName(method, safePlaceCol string) string {
	m := norm(method)
	switch {
	case containsAny(m, handDeliveryKeywords):
		return MethodHandDelivery
	case containsAny(m, postOfficeKeywords):
		return MethodPostOffice
	case containsAny(m, safePlaceKeywords):
		return MethodSafePlace
	case IsSafePlaceColumn(safePlaceCol):
		return MethodSafePlace
	}
	if method == "" {
		return MethodUnknown
	}
	return method
}
