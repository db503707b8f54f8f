package postback

import (
	"context"
	"sort"

	"github.com/leadrelay/leadrelay/internal/model"
)

// expandRecipients assembles the deduplicated notification set for one
// event.
//
// Always included: every active admin user plus the static configured admin
// list. For sales with an attributed performer the set additionally fans
// out to the performer, the alias lead, the performer's team leads (unless
// the performer is a mentor), the team's subscribed mentors, and every
// active head. A team lookup failure degrades to the admin-only set.
func (e *Engine) expandRecipients(ctx context.Context, dec Decision, users []model.User) []int64 {
	set := make(map[int64]struct{})

	for _, id := range e.adminIDs {
		set[id] = struct{}{}
	}
	for _, u := range users {
		if u.IsActive && u.Role == model.RoleAdmin {
			set[u.TelegramID] = struct{}{}
		}
	}

	if dec.IsSale && dec.Attributed {
		set[dec.PerformerID] = struct{}{}

		if dec.Alias != nil && dec.Alias.LeadID != nil {
			set[*dec.Alias.LeadID] = struct{}{}
		}

		if performer := findUser(users, dec.PerformerID); performer != nil && performer.TeamID != nil {
			teamID := *performer.TeamID

			if performer.Role != model.RoleMentor {
				leads, err := e.users.TeamLeads(ctx, teamID)
				if err != nil {
					e.logger.Warn("team lead lookup failed", "team_id", teamID, "error", err)
				}
				for _, id := range leads {
					set[id] = struct{}{}
				}
			}

			// Mentors subscribed to the team hear about every sale,
			// regardless of the performer's own role.
			mentors, err := e.users.TeamMentors(ctx, teamID)
			if err != nil {
				e.logger.Warn("team mentor lookup failed", "team_id", teamID, "error", err)
			}
			for _, id := range mentors {
				set[id] = struct{}{}
			}
		}

		for _, u := range users {
			if u.IsActive && u.Role == model.RoleHead {
				set[u.TelegramID] = struct{}{}
			}
		}
	}

	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
