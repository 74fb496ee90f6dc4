package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/state"
)

// ProfileService edits and deletes user profiles.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	refresher   state.Refresher
}

func NewProfileService(profileRepo repository.ProfileRepository, refresher state.Refresher) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, refresher: refresher}
}

func (s *ProfileService) Update(ctx context.Context, edit entity.ProfileEdit) error {
	if err := edit.Validate(); err != nil {
		return err
	}

	slog.Info("Service: Updating profile", "user_id", edit.ID)
	if err := s.profileRepo.Update(ctx, edit.ID, edit.ProfileUpdate); err != nil {
		return fmt.Errorf("failed to update profile %s: %w", edit.ID, err)
	}

	refreshAfterWrite(ctx, s.refresher, state.Profiles)
	return nil
}

// Delete removes the profile. The store cascades the delete to the user's
// orders, but only profiles are refreshed; the orders snapshot catches up on
// its next refresh.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	slog.Info("Service: Deleting profile", "user_id", id)
	if err := s.profileRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", id, err)
	}

	refreshAfterWrite(ctx, s.refresher, state.Profiles)
	return nil
}
