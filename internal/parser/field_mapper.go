package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

type synonym struct {
	header string
	field  model.CanonicalField
}

// headerSynonyms 原始表头 -> 字段 的精确同义词字典（有序，决定模糊语料顺序）
var headerSynonyms = []synonym{
	{"№", model.FieldID},
	{"Дата відомості", model.FieldDate},
	{"ПІБ кур'єра", model.FieldCourierID},
	{"Район (статичний/динамічний)", model.FieldRouteCode},
	{"Номер відомості завантаження кур'єра", model.FieldDocumentNumber},
	{"Місто одержувача", model.FieldCity},
	{"Підрозділ відомості", model.FieldDepartment},
	{"Номер ШК", model.FieldBarcode},
	{"Кількість місць", model.FieldQty},
	{"Планова дата надходження (остання дата поставки) Shipment", model.FieldPlannedDate},
	{"Дата доставки на дату відомості", model.FieldExecutionDate},
	{"Тип відправлення", model.FieldType},
	{"Фактична вага", model.FieldWeight},
	{"Об'ємна вага", model.FieldVolumetricWeight},
	{"Країна одержувача", model.FieldCountry},
	{"Номер телефону одержувача", model.FieldPhone},
	{"Тип одержувача", model.FieldClientType},
	{"Ім'я одержувача", model.FieldRecipientName},
	{"Адреса одержувача", model.FieldAddress},
	{"Статус доставки на дату відомості", model.FieldStatus},
	{"Час доставки на дату відомості", model.FieldDeliveryTime},
	{"Розрахунковий час на доставку по Predict на дату відомості", model.FieldInterval},
	{"Тип доставки", model.FieldDeliveryMethod},
	{"Причина недоставки на дату відомості", model.FieldReason},
	{"Коментар з МК на дату відомості", model.FieldComment},
	{"SafePlace", model.FieldSafePlace},
	{"SafePlace_UA", model.FieldSafePlace},
	{"Номер Shipment", model.FieldShipmentNumber},

	// 俄语导出
	{"Дата ведомости", model.FieldDate},
	{"ФИО курьера", model.FieldCourierID},
	{"Город получателя", model.FieldCity},
	{"Статус доставки", model.FieldStatus},
	{"Причина недоставки", model.FieldReason},
	{"Способ доставки", model.FieldDeliveryMethod},

	// 英文导出
	{"Courier", model.FieldCourierID},
	{"Route", model.FieldRouteCode},
	{"Quantity", model.FieldQty},
	{"Recipient", model.FieldRecipientName},
	{"Delivery Method", model.FieldDeliveryMethod},
	{"Undelivered Reason", model.FieldReason},
}

var exactSynonyms = func() map[string]model.CanonicalField {
	m := make(map[string]model.CanonicalField, len(headerSynonyms))
	for _, s := range headerSynonyms {
		m[s.header] = s.field
	}
	return m
}()

// Synonyms 返回字段的全部同义词（按字典顺序）
func Synonyms(field model.CanonicalField) []string {
	var out []string
	for _, s := range headerSynonyms {
		if s.field == field {
			out = append(out, s.header)
		}
	}
	return out
}

type corpusTerm struct {
	field model.CanonicalField
	text  string // 已规范化
	words []string
}

// Suggestion 单个表头的建议结果
type Suggestion struct {
	Header string               `json:"header"`
	Field  model.CanonicalField `json:"field"`
	Score  float64              `json:"score"` // 0 为完全一致
	Exact  bool                 `json:"exact"` // 命中同义词字典
}

// FieldMapper 表头模糊匹配器
type FieldMapper struct {
	threshold float64
	corpus    []corpusTerm
}

// NewFieldMapper 创建匹配器；threshold <= 0 时使用默认阈值
func NewFieldMapper(threshold float64) *FieldMapper {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	m := &FieldMapper{threshold: threshold}
	for _, f := range model.AllFields() {
		terms := append([]string{string(f)}, Synonyms(f)...)
		for _, t := range terms {
			text := normalizeMatchText(t)
			m.corpus = append(m.corpus, corpusTerm{
				field: f,
				text:  text,
				words: strings.Fields(text),
			})
		}
	}
	return m
}

// Threshold 当前接受阈值
func (m *FieldMapper) Threshold() float64 {
	return m.threshold
}

// Explain 返回单个表头的最佳匹配及得分（未达阈值时 Field 为 Unmapped）
func (m *FieldMapper) Explain(header string) Suggestion {
	trimmed := strings.TrimSpace(header)
	s := Suggestion{Header: header, Field: model.Unmapped, Score: 1}

	if f, ok := exactSynonyms[trimmed]; ok {
		s.Field = f
		s.Score = 0
		s.Exact = true
		return s
	}

	pattern := normalizeMatchText(trimmed)
	if utf8.RuneCountInString(pattern) < minFuzzyPatternLength {
		return s
	}

	best := -1
	bestScore := 1.0
	for i, term := range m.corpus {
		score := termScore(pattern, term)
		if score < bestScore {
			best = i
			bestScore = score
		}
	}
	s.Score = bestScore
	if best >= 0 && bestScore < m.threshold {
		s.Field = m.corpus[best].field
	}
	return s
}

// SuggestField 单个表头的建议字段
func (m *FieldMapper) SuggestField(header string) (model.CanonicalField, bool) {
	s := m.Explain(header)
	return s.Field, s.Field != model.Unmapped
}

// SuggestMapping 为全部表头生成建议映射
//
// 按表头顺序处理；字段已被前面的表头占用时，后者降级为 Unmapped。
func (m *FieldMapper) SuggestMapping(headers []string) model.HeaderMapping {
	mapping := make(model.HeaderMapping, len(headers))
	used := make(map[model.CanonicalField]bool)

	for _, h := range headers {
		f, ok := m.SuggestField(h)
		if ok && !used[f] {
			mapping[h] = f
			used[f] = true
			continue
		}
		if _, seen := mapping[h]; !seen {
			mapping[h] = model.Unmapped
		}
	}
	return mapping
}

// termScore 表头与语料项的距离：整体编辑距离与连续词窗口编辑距离取最小
//
// 窗口词数取表头词数 ±1，使“Статус доставки”能命中较长的“Статус доставки на дату відомості”。
func termScore(pattern string, term corpusTerm) float64 {
	if pattern == term.text {
		return 0
	}
	best := normalizedDistance(pattern, term.text)

	n := len(strings.Fields(pattern))
	for size := n - 1; size <= n+1; size++ {
		if size < 1 || size >= len(term.words) {
			continue
		}
		for i := 0; i+size <= len(term.words); i++ {
			window := strings.Join(term.words[i:i+size], " ")
			if d := normalizedDistance(pattern, window); d < best {
				best = d
				if best == 0 {
					return 0
				}
			}
		}
	}
	return best
}
