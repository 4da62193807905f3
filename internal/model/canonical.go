package model

import (
	"fmt"
	"strconv"
)

// CanonicalField 统一口径字段名（映射 UI、KPI、过滤器共用的契约面）
type CanonicalField string

// Unmapped 未映射标记
const Unmapped CanonicalField = ""

const (
	FieldID               CanonicalField = "id"
	FieldDate             CanonicalField = "date"
	FieldCourierID        CanonicalField = "courierId"
	FieldRouteCode        CanonicalField = "routeCode"
	FieldDocumentNumber   CanonicalField = "documentNumber"
	FieldCity             CanonicalField = "city"
	FieldDepartment       CanonicalField = "department"
	FieldBarcode          CanonicalField = "barcode"
	FieldQty              CanonicalField = "qty"
	FieldPlannedDate      CanonicalField = "plannedDate"
	FieldExecutionDate    CanonicalField = "executionDate"
	FieldType             CanonicalField = "type"
	FieldWeight           CanonicalField = "weight"
	FieldVolumetricWeight CanonicalField = "volumetricWeight"
	FieldCountry          CanonicalField = "country"
	FieldPhone            CanonicalField = "phone"
	FieldClientType       CanonicalField = "clientType"
	FieldRecipientName    CanonicalField = "recipientName"
	FieldAddress          CanonicalField = "address"
	FieldStatus           CanonicalField = "status"
	FieldDeliveryTime     CanonicalField = "deliveryTime"
	FieldInterval         CanonicalField = "interval"
	FieldDeliveryMethod   CanonicalField = "deliveryMethod"
	FieldReason           CanonicalField = "reason"
	FieldComment          CanonicalField = "comment"
	FieldSafePlace        CanonicalField = "safePlace"
	FieldShipmentNumber   CanonicalField = "shipmentNumber"
)

// 顺序即模糊匹配语料顺序与导出列顺序，新增字段需同步更新同义词字典
var canonicalFields = []CanonicalField{
	FieldID,
	FieldDate,
	FieldCourierID,
	FieldRouteCode,
	FieldDocumentNumber,
	FieldCity,
	FieldDepartment,
	FieldBarcode,
	FieldQty,
	FieldPlannedDate,
	FieldExecutionDate,
	FieldType,
	FieldWeight,
	FieldVolumetricWeight,
	FieldCountry,
	FieldPhone,
	FieldClientType,
	FieldRecipientName,
	FieldAddress,
	FieldStatus,
	FieldDeliveryTime,
	FieldInterval,
	FieldDeliveryMethod,
	FieldReason,
	FieldComment,
	FieldSafePlace,
	FieldShipmentNumber,
}

// AllFields 返回全部统一口径字段（副本）
func AllFields() []CanonicalField {
	out := make([]CanonicalField, len(canonicalFields))
	copy(out, canonicalFields)
	return out
}

// ParseField 校验字段名
func ParseField(name string) (CanonicalField, error) {
	if name == "" {
		return Unmapped, nil
	}
	for _, f := range canonicalFields {
		if string(f) == name {
			return f, nil
		}
	}
	return Unmapped, fmt.Errorf("unknown canonical field: %q", name)
}

// IsNumeric 是否数值字段
func (f CanonicalField) IsNumeric() bool {
	switch f {
	case FieldQty, FieldWeight, FieldVolumetricWeight:
		return true
	}
	return false
}

// CanonicalRecord 统一口径的配送/取件记录
//
// 任何字段都不会缺失：源数据缺列时文本为 ""，数值为 0。
type CanonicalRecord struct {
	ID               string  `json:"id"`
	Date             string  `json:"date"`
	CourierID        string  `json:"courierId"`
	RouteCode        string  `json:"routeCode"`
	DocumentNumber   string  `json:"documentNumber"`
	City             string  `json:"city"`
	Department       string  `json:"department"`
	Barcode          string  `json:"barcode"`
	Qty              float64 `json:"qty"`
	PlannedDate      string  `json:"plannedDate"`
	ExecutionDate    string  `json:"executionDate"`
	Type             string  `json:"type"`
	Weight           float64 `json:"weight"`
	VolumetricWeight float64 `json:"volumetricWeight"`
	Country          string  `json:"country"`
	Phone            string  `json:"phone"`
	ClientType       string  `json:"clientType"`
	RecipientName    string  `json:"recipientName"`
	Address          string  `json:"address"`
	Status           string  `json:"status"`
	DeliveryTime     string  `json:"deliveryTime"`
	Interval         string  `json:"interval"`
	DeliveryMethod   string  `json:"deliveryMethod"`
	Reason           string  `json:"reason"`
	Comment          string  `json:"comment"`
	SafePlace        string  `json:"safePlace"`
	ShipmentNumber   string  `json:"shipmentNumber"`
}

func (r *CanonicalRecord) textField(f CanonicalField) *string {
	switch f {
	case FieldID:
		return &r.ID
	case FieldDate:
		return &r.Date
	case FieldCourierID:
		return &r.CourierID
	case FieldRouteCode:
		return &r.RouteCode
	case FieldDocumentNumber:
		return &r.DocumentNumber
	case FieldCity:
		return &r.City
	case FieldDepartment:
		return &r.Department
	case FieldBarcode:
		return &r.Barcode
	case FieldPlannedDate:
		return &r.PlannedDate
	case FieldExecutionDate:
		return &r.ExecutionDate
	case FieldType:
		return &r.Type
	case FieldCountry:
		return &r.Country
	case FieldPhone:
		return &r.Phone
	case FieldClientType:
		return &r.ClientType
	case FieldRecipientName:
		return &r.RecipientName
	case FieldAddress:
		return &r.Address
	case FieldStatus:
		return &r.Status
	case FieldDeliveryTime:
		return &r.DeliveryTime
	case FieldInterval:
		return &r.Interval
	case FieldDeliveryMethod:
		return &r.DeliveryMethod
	case FieldReason:
		return &r.Reason
	case FieldComment:
		return &r.Comment
	case FieldSafePlace:
		return &r.SafePlace
	case FieldShipmentNumber:
		return &r.ShipmentNumber
	}
	return nil
}

func (r *CanonicalRecord) numericField(f CanonicalField) *float64 {
	switch f {
	case FieldQty:
		return &r.Qty
	case FieldWeight:
		return &r.Weight
	case FieldVolumetricWeight:
		return &r.VolumetricWeight
	}
	return nil
}

// SetText 写入文本字段，对数值字段或未知字段返回 false
func (r *CanonicalRecord) SetText(f CanonicalField, value string) bool {
	p := r.textField(f)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// SetNumber 写入数值字段，对文本字段或未知字段返回 false
func (r *CanonicalRecord) SetNumber(f CanonicalField, value float64) bool {
	p := r.numericField(f)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Number 读取数值字段
func (r CanonicalRecord) Number(f CanonicalField) float64 {
	if p := r.numericField(f); p != nil {
		return *p
	}
	return 0
}

// Get 以字符串形式读取任意字段（数值按最短表示输出）
func (r CanonicalRecord) Get(f CanonicalField) string {
	if p := r.textField(f); p != nil {
		return *p
	}
	if p := r.numericField(f); p != nil {
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	return ""
}
