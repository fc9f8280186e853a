package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Preferences is the settings blob the workbench UI stores per user. Keys
// other than the typed ones are kept verbatim in Extra.
type Preferences struct {
	Theme        string `json:"theme,omitempty"`
	Model        string `json:"model,omitempty"`
	OutputFormat string `json:"outputFormat,omitempty"`
	DepthLevel   int    `json:"depthLevel,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var preferenceKeys = []string{"theme", "model", "outputFormat", "depthLevel"}

// typedPreferences drops the methods so the json tags apply directly.
type typedPreferences Preferences

func (p Preferences) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(typedPreferences(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return typed, nil
	}

	merged := make(map[string]json.RawMessage, len(p.Extra)+len(preferenceKeys))
	for k, v := range p.Extra {
		merged[k] = v
	}
	if err := json.Unmarshal(typed, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

func (p *Preferences) UnmarshalJSON(data []byte) error {
	var typed typedPreferences
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range preferenceKeys {
		delete(all, k)
	}

	*p = Preferences(typed)
	p.Extra = nil
	if len(all) > 0 {
		p.Extra = all
	}
	return nil
}

// User is the account record owned by the identity directory.
type User struct {
	ID            uuid.UUID                       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email         string                          `gorm:"not null;size:255;uniqueIndex" json:"email"`
	PasswordHash  string                          `gorm:"not null" json:"-"`
	Name          string                          `gorm:"size:255" json:"name"`
	Phone         string                          `gorm:"size:32" json:"phone,omitempty"`
	PhoneVerified bool                            `gorm:"default:false" json:"phone_verified"`
	Plan          string                          `gorm:"size:20;default:'free'" json:"plan"`
	Preferences   datatypes.JSONType[Preferences] `gorm:"type:jsonb" json:"preferences"`
	TokenVersion  int                             `gorm:"not null;default:0" json:"token_version"`
	CreatedAt     time.Time                       `json:"created_at"`
	UpdatedAt     time.Time                       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt                  `gorm:"index" json:"-"`
}
