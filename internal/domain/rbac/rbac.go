// Пакет rbac — определение роли пользователя BFF по группам и ролям IdP.
// Роли упорядочены: maker < checker < admin. Старшая роль включает права младших.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleMaker   = "maker"
	RoleChecker = "checker"
	RoleAdmin   = "admin"
)

// roleWeight — вес роли для сравнения.
var roleWeight = map[string]int{
	RoleMaker:   1,
	RoleChecker: 2,
	RoleAdmin:   3,
}

// maxRole возвращает роль с максимальными привилегиями из двух.
func maxRole(a, b string) string {
	if roleWeight[a] >= roleWeight[b] {
		return a
	}
	return b
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает пустую строку.
func HighestRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	highest := roles[0]
	for _, r := range roles[1:] {
		highest = maxRole(highest, r)
	}
	return highest
}

// GroupMapping — группы IdP, дающие каждую из ролей.
type GroupMapping struct {
	AdminGroups   []string
	CheckerGroups []string
	MakerGroups   []string
}

// MapGroupsToRole определяет роль по группам IdP.
// Возвращает максимальную роль из всех совпадений или пустую строку.
func MapGroupsToRole(groups []string, m GroupMapping) string {
	adminSet := toSet(m.AdminGroups)
	checkerSet := toSet(m.CheckerGroups)
	makerSet := toSet(m.MakerGroups)

	var roles []string
	for _, g := range groups {
		if adminSet[g] {
			roles = append(roles, RoleAdmin)
		}
		if checkerSet[g] {
			roles = append(roles, RoleChecker)
		}
		if makerSet[g] {
			roles = append(roles, RoleMaker)
		}
	}

	return HighestRole(roles)
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// AtLeast проверяет, что role не ниже required.
// Пустая или неизвестная роль не проходит никакую проверку.
func AtLeast(role, required string) bool {
	w, ok := roleWeight[role]
	if !ok {
		return false
	}
	return w >= roleWeight[required]
}

// toSet конвертирует срез строк в map для быстрого поиска.
func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
