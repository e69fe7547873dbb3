package services

import (
	"context"

	"github.com/SantiagoArteche/ober-api/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipService answers whether a user belongs to a project. It is a
// pure read used as the guard before any write that would assign a
// non-member to a task.
type MembershipService struct {
	projects repositories.ProjectRepository
}

func NewMembershipService(projects repositories.ProjectRepository) *MembershipService {
	return &MembershipService{projects: projects}
}

// IsUserInProject reports whether userID is in the project's users array.
// A missing project is reported as false, not as an error.
func (s *MembershipService) IsUserInProject(ctx context.Context, userID, projectID primitive.ObjectID) (bool, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return false, err
	}
	if project == nil {
		return false, nil
	}
	return project.HasUser(userID), nil
}
