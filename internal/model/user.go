package model

import "fmt"

// Role determines which profile applies to a user.
type Role string

const (
	RoleDoctor   Role = "doctor"
	RolePatient  Role = "patient"
	RolePharmacy Role = "pharmacy"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RolePatient, RolePharmacy:
		return true
	}
	return false
}

// Profile is the role-specific part of a user. Exactly one implementation
// is attached to every User and it always matches User.Role.
type Profile interface {
	ProfileRole() Role
}

// DoctorProfile holds the practice details printed on prescriptions.
type DoctorProfile struct {
	Name            string `json:"name" binding:"required,max=128"`
	LicenseID       string `json:"license_id" binding:"required,max=64"`
	HospitalName    string `json:"hospital_name" binding:"required,max=128"`
	HospitalAddress string `json:"hospital_address" binding:"max=256"`
	HospitalContact string `json:"hospital_contact" binding:"max=64"`
}

func (*DoctorProfile) ProfileRole() Role { return RoleDoctor }

// PatientProfile holds the demographics printed in the prescription footer.
type PatientProfile struct {
	Name    string `json:"name" binding:"required,max=128"`
	Age     int    `json:"age" binding:"required,min=1,max=150"`
	Gender  string `json:"gender" binding:"required,max=32"`
	Address string `json:"address" binding:"max=256"`
}

func (*PatientProfile) ProfileRole() Role { return RolePatient }

// PharmacyProfile has no fields yet.
type PharmacyProfile struct{}

func (*PharmacyProfile) ProfileRole() Role { return RolePharmacy }

// User represents a system user
type User struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"-"`
	Role         Role    `json:"role"`
	Profile      Profile `json:"profile"`
}

// Doctor returns the doctor profile when the user is a doctor.
func (u *User) Doctor() (*DoctorProfile, bool) {
	p, ok := u.Profile.(*DoctorProfile)
	return p, ok && p != nil
}

// Patient returns the patient profile when the user is a patient.
func (u *User) Patient() (*PatientProfile, bool) {
	p, ok := u.Profile.(*PatientProfile)
	return p, ok && p != nil
}

// CheckProfile verifies the profile variant matches the role.
func (u *User) CheckProfile() error {
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if u.Profile == nil {
		return fmt.Errorf("missing %s profile", u.Role)
	}
	if got := u.Profile.ProfileRole(); got != u.Role {
		return fmt.Errorf("%s profile attached to %s user", got, u.Role)
	}
	return nil
}

// DoctorSummary is one entry of a hospital's doctor directory.
type DoctorSummary struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"doctor_name"`
	HospitalName string `json:"hospital_name" db:"hospital_name"`
}
