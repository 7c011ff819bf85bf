package models

import "time"

type Designation string

const (
	DesignationAssistant        Designation = "assistant"
	DesignationSeniorAssistant  Designation = "senior_assistant"
	DesignationOfficer          Designation = "officer"
	DesignationSeniorOfficer    Designation = "senior_officer"
	DesignationAssistantManager Designation = "assistant_manager"
	DesignationManager          Designation = "manager"
	DesignationSeniorManager    Designation = "senior_manager"
	DesignationChiefManager     Designation = "chief_manager"
	DesignationDeputyCEO        Designation = "deputy_ceo"
	DesignationCEO              Designation = "ceo"
)

var designationLabels = map[Designation]string{
	DesignationAssistant:        "Assistant",
	DesignationSeniorAssistant:  "Senior Assistant",
	DesignationOfficer:          "Officer",
	DesignationSeniorOfficer:    "Senior Officer",
	DesignationAssistantManager: "Assistant Manager",
	DesignationManager:          "Manager",
	DesignationSeniorManager:    "Senior Manager",
	DesignationChiefManager:     "Chief Manager",
	DesignationDeputyCEO:        "Deputy CEO",
	DesignationCEO:              "CEO",
}

// Designations: все должности в порядке показа.
var Designations = []Designation{
	DesignationAssistant,
	DesignationSeniorAssistant,
	DesignationOfficer,
	DesignationSeniorOfficer,
	DesignationAssistantManager,
	DesignationManager,
	DesignationSeniorManager,
	DesignationChiefManager,
	DesignationDeputyCEO,
	DesignationCEO,
}

func ParseDesignation(s string) (Designation, bool) {
	d := Designation(s)
	_, ok := designationLabels[d]
	return d, ok
}

func (d Designation) Label() string { return designationLabels[d] }

func (d Designation) Valid() bool {
	_, ok := designationLabels[d]
	return ok
}

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Email        string  `gorm:"uniqueIndex:idx_users_email;size:254;not null" json:"email"`
	Username     string  `gorm:"uniqueIndex:idx_users_username;size:150;not null" json:"username"`
	FullName     string  `gorm:"size:255;not null" json:"full_name"`
	Mobile       *string `gorm:"size:20" json:"mobile"`
	PasswordHash string  `gorm:"not null" json:"-"`

	IsActive    bool `gorm:"not null" json:"is_active"`
	IsStaff     bool `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool `gorm:"not null;default:false" json:"is_superuser"`
	IsGlobal    bool `gorm:"not null;default:false" json:"is_global"`
	IsITDept    bool `gorm:"column:is_it_dept;not null;default:false" json:"is_it_dept"`

	UserLevel *Designation `gorm:"type:varchar(255)" json:"user_level"`

	DateJoined time.Time  `gorm:"not null" json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
}

func (u User) String() string { return u.FullName + "-" + u.Email }

// UserQuery: фильтры списка пользователей.
type UserQuery struct {
	Search   string
	IsStaff  *bool
	IsActive *bool
}
