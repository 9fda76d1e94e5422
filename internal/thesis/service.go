package thesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput indicates missing or malformed thesis fields.
var ErrInvalidInput = errors.New("invalid input")

// Service contains business logic for investment theses.
type Service struct {
	Repo Repo
}

// Get returns the user's thesis.
func (s *Service) Get(ctx context.Context, userID string) (Thesis, error) {
	if userID == "" {
		return Thesis{}, ErrInvalidInput
	}
	return s.Repo.Get(ctx, userID)
}

// Save validates and stores the user's thesis.
func (s *Service) Save(ctx context.Context, t Thesis) (Thesis, error) {
	if t.UserID == "" {
		return Thesis{}, ErrInvalidInput
	}
	if t.CheckSizeUSD < 0 {
		return Thesis{}, fmt.Errorf("%w: check size must not be negative", ErrInvalidInput)
	}
	t.FundName = strings.TrimSpace(t.FundName)
	t.Description = strings.TrimSpace(t.Description)
	t.TargetSectors = trimList(t.TargetSectors)
	t.TargetStages = trimList(t.TargetStages)
	t.Geographies = trimList(t.Geographies)

	if err := s.Repo.Upsert(ctx, t); err != nil {
		return Thesis{}, err
	}
	return s.Repo.Get(ctx, t.UserID)
}

// ProfileText renders the thesis as prompt context for the council.
// Returns an empty string when no thesis is configured.
func (s *Service) ProfileText(ctx context.Context, userID string) (string, error) {
	t, err := s.Repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if t.FundName != "" {
		fmt.Fprintf(&b, "Fund: %s\n", t.FundName)
	}
	if len(t.TargetSectors) > 0 {
		fmt.Fprintf(&b, "Target sectors: %s\n", strings.Join(t.TargetSectors, ", "))
	}
	if len(t.TargetStages) > 0 {
		fmt.Fprintf(&b, "Target stages: %s\n", strings.Join(t.TargetStages, ", "))
	}
	if len(t.Geographies) > 0 {
		fmt.Fprintf(&b, "Geographies: %s\n", strings.Join(t.Geographies, ", "))
	}
	if t.CheckSizeUSD > 0 {
		fmt.Fprintf(&b, "Typical check size: $%d\n", t.CheckSizeUSD)
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "%s\n", t.Description)
	}
	return strings.TrimSpace(b.String()), nil
}

func trimList(list []string) []string {
	var out []string
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
