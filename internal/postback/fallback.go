package postback

import (
	"sort"

	"github.com/leadrelay/leadrelay/internal/model"
)

// resolveFallback picks an identity to notify when attribution failed so
// that no conversion goes unseen. Order: the first configured admin ID,
// else the earliest-created active admin user. The fallback identity is
// never credited for statistics.
func (e *Engine) resolveFallback(users []model.User) (int64, bool) {
	if len(e.adminIDs) > 0 {
		return e.adminIDs[0], true
	}

	admins := make([]model.User, 0, 2)
	for _, u := range users {
		if u.IsActive && u.Role == model.RoleAdmin {
			admins = append(admins, u)
		}
	}
	if len(admins) == 0 {
		return 0, false
	}
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].CreatedAt.Before(admins[j].CreatedAt)
	})
	return admins[0].TelegramID, true
}
