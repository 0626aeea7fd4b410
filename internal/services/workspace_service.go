package services

import (
	"errors"

	"github.com/ideaboard/ideaboard/internal/database"
	"gorm.io/gorm"
)

// WorkspaceService resolves workspaces and enforces tenant isolation. Every
// core operation takes a workspace scope produced here; client-supplied
// workspace ids are never trusted directly.
type WorkspaceService struct {
	db *gorm.DB
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(db *gorm.DB) *WorkspaceService {
	return &WorkspaceService{db: db}
}

// ResolveWorkspace returns the workspace owned by the given account
func (s *WorkspaceService) ResolveWorkspace(ownerID string) (*database.Workspace, error) {
	var ws database.Workspace
	err := s.db.Where("owner_id = ?", ownerID).First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// GetBySlug returns the workspace with the given public slug
func (s *WorkspaceService) GetBySlug(slug string) (*database.Workspace, error) {
	var ws database.Workspace
	err := s.db.Where("slug = ?", slug).First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// GetIdeaByUUID returns an idea scoped to a workspace
func (s *WorkspaceService) GetIdeaByUUID(uuid string, workspaceID uint) (*database.Idea, error) {
	var idea database.Idea
	err := s.db.Where("uuid = ? AND workspace_id = ?", uuid, workspaceID).First(&idea).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// VerifyIdeaOwnership reports whether the idea belongs to a workspace owned
// by the acting user.
func (s *WorkspaceService) VerifyIdeaOwnership(ideaID uint, actorID string) (bool, error) {
	var count int64
	err := s.db.Model(&database.Idea{}).
		Joins("JOIN workspaces ON workspaces.id = ideas.workspace_id").
		Where("ideas.id = ? AND workspaces.owner_id = ?", ideaID, actorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetContributor returns a contributor scoped to a workspace
func (s *WorkspaceService) GetContributor(uuid string, workspaceID uint) (*database.Contributor, error) {
	var c database.Contributor
	err := s.db.Where("uuid = ? AND workspace_id = ?", uuid, workspaceID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
