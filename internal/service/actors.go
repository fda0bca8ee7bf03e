// actors.go — сопоставление пользователя из JWT с пользователем ядра.
package service

import (
	"context"
	"strings"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// ActorResolver находит пользователя ядра по preferred_username.
type ActorResolver struct {
	core CoreAPI
}

// NewActorResolver создаёт резолвер акторов.
func NewActorResolver(core CoreAPI) *ActorResolver {
	return &ActorResolver{core: core}
}

// Resolve возвращает пользователя ядра с тем же username (без учёта регистра).
// Если пользователь не найден или username пуст — nil без ошибки.
func (r *ActorResolver) Resolve(ctx context.Context, username string) (*model.SuperCheckerUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	users, err := r.core.ListUsers(ctx)
	if err != nil {
		return nil, wrapCore("поиск текущего пользователя в ядре", err)
	}
	return findUser(users, username), nil
}

func findUser(users []model.SuperCheckerUser, username string) *model.SuperCheckerUser {
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			u := users[i]
			return &u
		}
	}
	return nil
}
