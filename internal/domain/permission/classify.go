// Пакет permission — реестр разрешений maker-checker: группировка для
// отображения и нормализация массового обновления.
//
// Группировка — эвристика только для UI, на авторизацию не влияет.
package permission

import (
	"strings"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// Группы отображения.
const (
	GroupLoans    = "Loans"
	GroupSavings  = "Savings"
	GroupClients  = "Clients"
	GroupProducts = "Products"
	GroupSystem   = "System"
)

// rule — набор ключевых слов и группа, в которую попадает код при совпадении.
type rule struct {
	keywords []string
	group    string
}

// rules проверяются по порядку, побеждает первое совпадение.
// System не имеет ключевых слов и служит catch-all.
var rules = []rule{
	{keywords: []string{"LOAN"}, group: GroupLoans},
	{keywords: []string{"SAVINGS", "SAVING"}, group: GroupSavings},
	{keywords: []string{"CLIENT"}, group: GroupClients},
	{keywords: []string{"PRODUCT", "DEPOSIT", "SHARE"}, group: GroupProducts},
}

// groupOrder — порядок групп в ответе.
var groupOrder = []string{GroupLoans, GroupSavings, GroupClients, GroupProducts, GroupSystem}

// Classify возвращает группу отображения для кода разрешения.
func Classify(code string) string {
	upper := strings.ToUpper(code)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(upper, kw) {
				return r.group
			}
		}
	}
	return GroupSystem
}

// Annotate проставляет Group каждому разрешению. Срез изменяется на месте.
func Annotate(perms []model.Permission) []model.Permission {
	for i := range perms {
		perms[i].Group = Classify(perms[i].Code)
	}
	return perms
}

// GroupPermissions раскладывает разрешения по группам в фиксированном порядке.
// Пустые группы не возвращаются, порядок разрешений внутри группы сохраняется.
func GroupPermissions(perms []model.Permission) []model.PermissionGroup {
	byGroup := make(map[string]*model.PermissionGroup, len(groupOrder))
	for _, p := range perms {
		g := Classify(p.Code)
		p.Group = g
		pg, ok := byGroup[g]
		if !ok {
			pg = &model.PermissionGroup{Name: g, Permissions: []model.Permission{}}
			byGroup[g] = pg
		}
		pg.Permissions = append(pg.Permissions, p)
		if p.Selected {
			pg.SelectedCount++
		}
	}

	result := make([]model.PermissionGroup, 0, len(byGroup))
	for _, name := range groupOrder {
		if pg, ok := byGroup[name]; ok {
			result = append(result, *pg)
		}
	}
	return result
}

// CountSelected возвращает число разрешений, требующих одобрения.
func CountSelected(perms []model.Permission) int {
	n := 0
	for _, p := range perms {
		if p.Selected {
			n++
		}
	}
	return n
}
