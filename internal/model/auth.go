package model

import (
	"github.com/golang-jwt/jwt/v5"
)

// SignupRequest carries exactly one profile, matching Role.
type SignupRequest struct {
	Username string           `json:"username" binding:"required,min=3,max=64"`
	Password string           `json:"password" binding:"required,min=8,max=72"`
	Role     Role             `json:"role" binding:"required,role"`
	Doctor   *DoctorProfile   `json:"doctor" binding:"required_if=Role doctor"`
	Patient  *PatientProfile  `json:"patient" binding:"required_if=Role patient"`
	Pharmacy *PharmacyProfile `json:"pharmacy"`
}

// ToUser builds the user the request describes. Profiles that do not match
// the role are dropped.
func (r *SignupRequest) ToUser() *User {
	u := &User{Username: r.Username, Role: r.Role}
	switch r.Role {
	case RoleDoctor:
		if r.Doctor != nil {
			u.Profile = r.Doctor
		}
	case RolePatient:
		if r.Patient != nil {
			u.Profile = r.Patient
		}
	case RolePharmacy:
		u.Profile = &PharmacyProfile{}
	}
	return u
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required,role"`
}

type SignupResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user"`
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
