package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ecodrive-backend/models"
	"ecodrive-backend/repository"
)

// MyAreas returns the community names a user belongs to: home region, area
// and subscriptions, deduplicated and sorted
func MyAreas(u *models.User) []string {
	seen := make(map[string]bool)
	var areas []string
	add := func(a string) {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			return
		}
		seen[a] = true
		areas = append(areas, a)
	}
	add(u.Region)
	add(u.Area)
	for _, a := range u.SubscribedAreas {
		add(a)
	}
	sort.Strings(areas)
	return areas
}

// access resolves which poll regions a user takes part in
type access struct {
	users     repository.UserRepository
	locations repository.LocationRepository
}

func (a access) user(ctx context.Context, id uint) (*models.User, error) {
	u, err := a.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownUser
	}
	return u, err
}

// regions expands the user's areas with the region of every location named
// by one of them
func (a access) regions(ctx context.Context, u *models.User) ([]string, error) {
	areas := MyAreas(u)
	set := make(map[string]bool, len(areas))
	out := make([]string, 0, len(areas))
	for _, name := range areas {
		if !set[name] {
			set[name] = true
			out = append(out, name)
		}
		loc, err := a.locations.FindByName(ctx, name)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve area %q: %w", name, err)
		}
		if loc.Region != "" && !set[loc.Region] {
			set[loc.Region] = true
			out = append(out, loc.Region)
		}
	}
	sort.Strings(out)
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
