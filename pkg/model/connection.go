package model

import (
	"strings"
	"time"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
)

// ReviewConfig is the per-connection review policy.
type ReviewConfig struct {
	NumTotalRequired         int  `gorm:"column:num_total_required;not null;default:1"`
	AllowSelfApproval        bool `gorm:"column:allow_self_approval;not null;default:false"`
	AllowReadOnlyReexecution bool `gorm:"column:allow_read_only_reexecution;not null;default:false"`
}

// Connection is a datasource execution requests are run against.
type Connection struct {
	ID              string       `gorm:"column:id;primaryKey"`
	DisplayName     string       `gorm:"column:display_name;not null"`
	Description     string       `gorm:"column:description"`
	ReadOnlyCapable bool         `gorm:"column:read_only_capable;not null;default:false"`
	CredentialsRef  string       `gorm:"column:credentials_ref"`
	ReviewConfig    ReviewConfig `gorm:"embedded;embeddedPrefix:review_"`
	CreatedAt       time.Time    `gorm:"column:created_at;autoCreateTime"`
}

func (Connection) TableName() string {
	return "connections"
}

// Validate rejects a connection without id or with a negative quorum.
func (c *Connection) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errs.Validation("connection has no id")
	}
	if c.ReviewConfig.NumTotalRequired < 0 {
		return errs.Validation("connection %s: num_total_required must not be negative, got %d", c.ID, c.ReviewConfig.NumTotalRequired)
	}
	return nil
}
