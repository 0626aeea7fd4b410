package database

import (
	"time"

	"gorm.io/gorm"
)

// DedupeSettings controls duplicate detection behavior for one workspace
type DedupeSettings struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	WorkspaceID     uint      `gorm:"uniqueIndex;not null" json:"workspace_id"`
	Enabled         bool      `gorm:"default:true" json:"enabled"`
	SimilarityFloor int       `gorm:"default:55" json:"similarity_floor"` // 0-100, candidates below are ignored
	TopK            int       `gorm:"default:3" json:"top_k"`
	SlackEnabled    bool      `gorm:"default:false" json:"slack_enabled"`
	SlackChannel    string    `gorm:"type:varchar(128)" json:"slack_channel"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (DedupeSettings) TableName() string {
	return "dedupe_settings"
}

// NewDefaultDedupeSettings returns settings with default values
func NewDefaultDedupeSettings(workspaceID uint) *DedupeSettings {
	return &DedupeSettings{
		WorkspaceID:     workspaceID,
		Enabled:         true,
		SimilarityFloor: 55,
		TopK:            3,
	}
}

// GetOrCreateDedupeSettings retrieves or creates the settings row for a
// workspace. Accepts a db parameter to support transaction contexts and
// testing.
func GetOrCreateDedupeSettings(db *gorm.DB, workspaceID uint) (*DedupeSettings, error) {
	var settings DedupeSettings
	result := db.Where("workspace_id = ?", workspaceID).First(&settings)
	if result.Error == gorm.ErrRecordNotFound {
		settings = *NewDefaultDedupeSettings(workspaceID)
		if err := db.Create(&settings).Error; err != nil {
			return nil, err
		}
	} else if result.Error != nil {
		return nil, result.Error
	}
	return &settings, nil
}

// UpdateDedupeSettings persists changed settings
func UpdateDedupeSettings(db *gorm.DB, settings *DedupeSettings) error {
	return db.Save(settings).Error
}
