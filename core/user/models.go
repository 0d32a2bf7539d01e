package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aranzadi/pictotea/core"
)

// Roles
const (
	// Admin
	RoleAdmin      = "admin:"
	RoleAdminSuper = "admin:super"

	// Therapist
	RoleTherapist = "therapist:"

	// Tutor
	RoleTutor = "tutor:"

	// Patient
	RolePatient = "patient:"
)

var (
	AdminRoles     = []string{RoleAdmin, RoleAdminSuper}
	TherapistRoles = []string{RoleTherapist}
	TutorRoles     = []string{RoleTutor}
	PatientRoles   = []string{RolePatient}
	AllRoles       = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminSuper: 30,
		RoleAdmin:      21,

		// Therapists: 20 - 11
		RoleTherapist: 11,

		// Tutors & Patients: 10 - 1
		RoleTutor:   2,
		RolePatient: 1,
	}

	Roles = []Role{
		{Name: "Patient", Value: RolePatient},
		{Name: "Tutor", Value: RoleTutor},
		{Name: "Therapist", Value: RoleTherapist},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Super Admin", Value: RoleAdminSuper},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, TherapistRoles...)
	all = append(all, TutorRoles...)
	all = append(all, PatientRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func roleStartsWith(roles []string, prefix string) bool {
	for _, role := range roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

// AccessContext carries the requester's identity and role claims into every
// service operation that branches on them. It replaces ad-hoc "does the roles
// array include X" checks scattered across layers.
type AccessContext struct {
	UserID int
	Roles  []string
}

func (ac AccessContext) IsAdmin() bool     { return roleStartsWith(ac.Roles, RoleAdmin) }
func (ac AccessContext) IsTherapist() bool { return roleStartsWith(ac.Roles, RoleTherapist) }
func (ac AccessContext) IsTutor() bool     { return roleStartsWith(ac.Roles, RoleTutor) }

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	return roleStartsWith(u.Roles, prefix)
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsTherapist() bool {
	return u.RoleStartsWith(RoleTherapist)
}

func (u *User) IsTutor() bool {
	return u.RoleStartsWith(RoleTutor)
}

// AccessContext derives the requester context for a logged-in user.
func (u *User) AccessContext() AccessContext {
	return AccessContext{UserID: u.ID, Roles: u.Roles}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Username, nu.Email)
}
