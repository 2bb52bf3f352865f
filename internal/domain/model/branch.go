package model

import (
	"strings"

	"github.com/google/uuid"
)

type Branch struct {
	ID   string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name string `gorm:"not null;type:varchar(100);uniqueIndex" json:"name"`
	BaseModel
}

func (Branch) TableName() string {
	return "branches"
}

var branchRules = []Rule[Branch]{
	{Field: "name", Message: "branch name cannot be empty", Check: func(b Branch) bool { return strings.TrimSpace(b.Name) != "" }},
}

func NewBranch(name string) (*Branch, error) {
	b := Branch{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	if err := ToError(Validate(b, branchRules)); err != nil {
		return nil, err
	}
	return &b, nil
}
