package permission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Shape — форма тела массового обновления.
type Shape int

const (
	// ShapeNone — пустое или не разобранное обновление.
	ShapeNone Shape = iota
	// ShapeCodes — массив кодов: ["LOAN_APPROVE", ...], каждый selected=true.
	ShapeCodes
	// ShapePairs — массив пар: [{"code": "...", "selected": true}, ...].
	ShapePairs
	// ShapeMap — объект: {"LOAN_APPROVE": true, ...}.
	ShapeMap
)

func (s Shape) String() string {
	switch s {
	case ShapeCodes:
		return "codes"
	case ShapePairs:
		return "pairs"
	case ShapeMap:
		return "map"
	default:
		return "none"
	}
}

// ErrEmptyUpdate — обновление не содержит ни одного кода.
var ErrEmptyUpdate = errors.New("обновление разрешений не содержит ни одного кода")

// Pair — элемент формы ShapePairs.
type Pair struct {
	Code     string `json:"code"`
	Selected *bool  `json:"selected"`
}

// Update — размеченное объединение трёх допустимых форм обновления.
// Заполнено ровно одно поле, соответствующее Shape.
type Update struct {
	Shape Shape
	Codes []string
	Pairs []Pair
	Map   map[string]bool
}

// UnmarshalJSON определяет форму по первому токену и строго декодирует
// соответствующий вариант. Смешанные массивы и нестроковые/небулевы
// значения отклоняются.
func (u *Update) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("тело обновления разрешений пустое")
	}

	switch trimmed[0] {
	case '{':
		var m map[string]bool
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return fmt.Errorf("объект обновления должен иметь вид {код: bool}: %w", err)
		}
		*u = Update{Shape: ShapeMap, Map: m}
		return nil

	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("некорректный массив обновления: %w", err)
		}
		if len(raw) == 0 {
			*u = Update{Shape: ShapeCodes, Codes: []string{}}
			return nil
		}
		first := bytes.TrimSpace(raw[0])
		if len(first) > 0 && first[0] == '{' {
			pairs := make([]Pair, 0, len(raw))
			for i, item := range raw {
				var p Pair
				if err := json.Unmarshal(item, &p); err != nil {
					return fmt.Errorf("элемент %d: ожидался объект {code, selected}: %w", i, err)
				}
				pairs = append(pairs, p)
			}
			*u = Update{Shape: ShapePairs, Pairs: pairs}
			return nil
		}
		codes := make([]string, 0, len(raw))
		for i, item := range raw {
			var c string
			if err := json.Unmarshal(item, &c); err != nil {
				return fmt.Errorf("элемент %d: ожидался строковый код: %w", i, err)
			}
			codes = append(codes, c)
		}
		*u = Update{Shape: ShapeCodes, Codes: codes}
		return nil

	default:
		return fmt.Errorf("обновление разрешений должно быть массивом или объектом")
	}
}

// Normalize приводит обновление к каноническому виду код → selected.
// Коды не сверяются с реестром: ядро авторитетно.
// Для ShapeCodes все коды получают selected=true, сбросить флаг этой
// формой нельзя.
func (u Update) Normalize() (map[string]bool, error) {
	out := make(map[string]bool)

	switch u.Shape {
	case ShapeCodes:
		for _, c := range u.Codes {
			code, err := normalizeCode(c)
			if err != nil {
				return nil, err
			}
			out[code] = true
		}
	case ShapePairs:
		for i, p := range u.Pairs {
			code, err := normalizeCode(p.Code)
			if err != nil {
				return nil, fmt.Errorf("элемент %d: %w", i, err)
			}
			if p.Selected == nil {
				return nil, fmt.Errorf("элемент %d (%s): не задано поле selected", i, code)
			}
			out[code] = *p.Selected
		}
	case ShapeMap:
		for c, sel := range u.Map {
			code, err := normalizeCode(c)
			if err != nil {
				return nil, err
			}
			out[code] = sel
		}
	default:
		return nil, ErrEmptyUpdate
	}

	if len(out) == 0 {
		return nil, ErrEmptyUpdate
	}
	return out, nil
}

func normalizeCode(c string) (string, error) {
	code := strings.TrimSpace(c)
	if code == "" {
		return "", fmt.Errorf("пустой код разрешения")
	}
	return code, nil
}
