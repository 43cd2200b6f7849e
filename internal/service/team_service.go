package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ticketflow/internal/models"
	"ticketflow/internal/repository"
)

type TeamService struct {
	profiles repository.ProfileRepository
	log      zerolog.Logger
}

func NewTeamService(profiles repository.ProfileRepository, log zerolog.Logger) *TeamService {
	return &TeamService{profiles: profiles, log: log}
}

// Member is a team page row.
type Member struct {
	models.Profile
	RoleLabel     string `json:"roleLabel"`
	CanChangeRole bool   `json:"canChangeRole"`
}

// RoleCount is one entry of the per-role summary, in models.Roles order.
type RoleCount struct {
	Role  models.Role `json:"role"`
	Label string      `json:"label"`
	Count int         `json:"count"`
}

type Team struct {
	Members    []Member    `json:"members"`
	RoleCounts []RoleCount `json:"roleCounts"`
}

// Assignable lists reassignment candidates, by name.
func (s *TeamService) Assignable(ctx context.Context) ([]models.Profile, error) {
	return s.profiles.List(ctx, repository.ByName)
}

// Recent lists up to n members, newest first.
func (s *TeamService) Recent(ctx context.Context, n int) ([]models.Profile, error) {
	all, err := s.profiles.List(ctx, repository.NewestFirst)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// Overview builds the team page for an admin.
func (s *TeamService) Overview(ctx context.Context, actor models.Profile) (*Team, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	profiles, err := s.profiles.List(ctx, repository.NewestFirst)
	if err != nil {
		return nil, err
	}
	return &Team{Members: members(actor, profiles), RoleCounts: CountRoles(profiles)}, nil
}

func members(actor models.Profile, profiles []models.Profile) []Member {
	out := make([]Member, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, Member{
			Profile:       p,
			RoleLabel:     p.Role.Label(),
			CanChangeRole: actor.IsAdmin() && p.ID != actor.ID,
		})
	}
	return out
}

// CountRoles tallies profiles per role. Every role appears, even at zero.
func CountRoles(profiles []models.Profile) []RoleCount {
	n := map[models.Role]int{}
	for _, p := range profiles {
		n[p.Role]++
	}
	out := make([]RoleCount, 0, len(models.Roles))
	for _, r := range models.Roles {
		out = append(out, RoleCount{Role: r, Label: r.Label(), Count: n[r]})
	}
	return out
}

// ChangeRole sets the role of another profile. Admins cannot change their own.
func (s *TeamService) ChangeRole(ctx context.Context, actor models.Profile, profileID, role string) (*models.Profile, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if profileID == actor.ID {
		return nil, invalid("You cannot change your own role")
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, invalid("Unknown role %q", role)
	}
	if _, err := uuid.Parse(profileID); err != nil {
		return nil, ErrNotFound
	}
	p, err := s.profiles.UpdateRole(ctx, profileID, r)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("profile", p.ID).Str("role", string(r)).Str("by", actor.ID).Msg("role changed")
	return p, nil
}
