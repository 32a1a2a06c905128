package model

import "time"

// RequestFields are the author-editable parts of a request.
type RequestFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Statement   string `json:"statement"`
	ReadOnly    bool   `json:"read_only"`
}

// ExecutionRequest asks for Statement to be run on a connection once it has
// been reviewed. ReviewStatus is a cache of the status derived from the
// request's events and is rewritten on every append.
type ExecutionRequest struct {
	ID              string          `gorm:"column:id;primaryKey"`
	AuthorID        string          `gorm:"column:author_id;not null"`
	ConnectionID    string          `gorm:"column:connection_id;not null;index"`
	Type            RequestType     `gorm:"column:type;type:text;not null"`
	Title           string          `gorm:"column:title;not null"`
	Description     string          `gorm:"column:description"`
	Statement       string          `gorm:"column:statement;not null"`
	ReadOnly        bool            `gorm:"column:read_only;not null;default:false"`
	ExecutionStatus ExecutionStatus `gorm:"column:execution_status;type:text;not null"`
	ReviewStatus    ReviewStatus    `gorm:"column:review_status;type:text;not null"`
	Archived        bool            `gorm:"column:archived;not null;default:false"`
	Version         int             `gorm:"column:version;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (ExecutionRequest) TableName() string {
	return "execution_requests"
}

// Fields returns the editable fields of r.
func (r *ExecutionRequest) Fields() RequestFields {
	return RequestFields{
		Title:       r.Title,
		Description: r.Description,
		Statement:   r.Statement,
		ReadOnly:    r.ReadOnly,
	}
}

// SetFields overwrites the editable fields of r.
func (r *ExecutionRequest) SetFields(f RequestFields) {
	r.Title = f.Title
	r.Description = f.Description
	r.Statement = f.Statement
	r.ReadOnly = f.ReadOnly
}
