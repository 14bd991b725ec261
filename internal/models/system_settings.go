package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemSettings is the single admin-editable configuration row. The
// array-typed columns hold JSON text and are decoded by the settings store.
type SystemSettings struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FreeMaxResumes int `gorm:"not null;default:10" json:"free_max_resumes"`
	FreeMaxAIUsage int `gorm:"column:free_max_ai_usage;not null;default:100" json:"free_max_ai_usage"`
	FreeMaxExports int `gorm:"not null;default:20" json:"free_max_exports"`
	FreeMaxImports int `gorm:"not null;default:0" json:"free_max_imports"`

	BasicMaxResumes int `gorm:"not null;default:50" json:"basic_max_resumes"`
	BasicMaxAIUsage int `gorm:"column:basic_max_ai_usage;not null;default:500" json:"basic_max_ai_usage"`
	BasicMaxExports int `gorm:"not null;default:100" json:"basic_max_exports"`
	BasicMaxImports int `gorm:"not null;default:0" json:"basic_max_imports"`

	ProMaxResumes int `gorm:"not null;default:-1" json:"pro_max_resumes"`
	ProMaxAIUsage int `gorm:"column:pro_max_ai_usage;not null;default:-1" json:"pro_max_ai_usage"`
	ProMaxExports int `gorm:"not null;default:-1" json:"pro_max_exports"`
	ProMaxImports int `gorm:"not null;default:-1" json:"pro_max_imports"`

	FreeTemplates    datatypes.JSON `gorm:"type:text" json:"free_templates"`
	BasicTemplates   datatypes.JSON `gorm:"type:text" json:"basic_templates"`
	ProTemplates     datatypes.JSON `gorm:"type:text" json:"pro_templates"`
	PhotoUploadPlans datatypes.JSON `gorm:"type:text" json:"photo_upload_plans"`
	BasicPrice       float64        `gorm:"not null;default:9.99" json:"basic_price"`
	ProPrice         float64        `gorm:"not null;default:19.99" json:"pro_price"`
	MaintenanceMode  bool           `gorm:"not null;default:false" json:"maintenance_mode"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (SystemSettings) TableName() string {
	return "system_settings"
}
