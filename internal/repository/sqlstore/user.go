package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
)

const userColumns = `id, username, password, role,
	hospital_name, hospital_address, hospital_contact, doctor_sip, doctor_name,
	patient_name, patient_age, patient_gender, patient_address`

// userRow mirrors the wide Users table. Only the columns of the user's
// role are ever populated.
type userRow struct {
	ID              int64          `db:"id"`
	Username        string         `db:"username"`
	Password        string         `db:"password"`
	Role            string         `db:"role"`
	HospitalName    sql.NullString `db:"hospital_name"`
	HospitalAddress sql.NullString `db:"hospital_address"`
	HospitalContact sql.NullString `db:"hospital_contact"`
	DoctorSIP       sql.NullString `db:"doctor_sip"`
	DoctorName      sql.NullString `db:"doctor_name"`
	PatientName     sql.NullString `db:"patient_name"`
	PatientAge      sql.NullInt64  `db:"patient_age"`
	PatientGender   sql.NullString `db:"patient_gender"`
	PatientAddress  sql.NullString `db:"patient_address"`
}

func newUserRow(u *model.User) *userRow {
	row := &userRow{
		Username: u.Username,
		Password: u.PasswordHash,
		Role:     string(u.Role),
	}
	switch p := u.Profile.(type) {
	case *model.DoctorProfile:
		row.HospitalName = nullString(p.HospitalName)
		row.HospitalAddress = nullString(p.HospitalAddress)
		row.HospitalContact = nullString(p.HospitalContact)
		row.DoctorSIP = nullString(p.LicenseID)
		row.DoctorName = nullString(p.Name)
	case *model.PatientProfile:
		row.PatientName = nullString(p.Name)
		row.PatientAge = sql.NullInt64{Int64: int64(p.Age), Valid: true}
		row.PatientGender = nullString(p.Gender)
		row.PatientAddress = nullString(p.Address)
	}
	return row
}

func (r *userRow) toModel() (*model.User, error) {
	u := &model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.Password,
		Role:         model.Role(r.Role),
	}
	switch u.Role {
	case model.RoleDoctor:
		u.Profile = &model.DoctorProfile{
			Name:            r.DoctorName.String,
			LicenseID:       r.DoctorSIP.String,
			HospitalName:    r.HospitalName.String,
			HospitalAddress: r.HospitalAddress.String,
			HospitalContact: r.HospitalContact.String,
		}
	case model.RolePatient:
		u.Profile = &model.PatientProfile{
			Name:    r.PatientName.String,
			Age:     int(r.PatientAge.Int64),
			Gender:  r.PatientGender.String,
			Address: r.PatientAddress.String,
		}
	case model.RolePharmacy:
		u.Profile = &model.PharmacyProfile{}
	default:
		return nil, fmt.Errorf("user %d has unknown role %q", r.ID, r.Role)
	}
	return u, nil
}

type userRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (int64, error) {
	if err := user.CheckProfile(); err != nil {
		return 0, fmt.Errorf("invalid user: %w", err)
	}

	row := newUserRow(user)
	query := r.rebind(`
		INSERT INTO Users (
			username, password, role,
			hospital_name, hospital_address, hospital_contact, doctor_sip, doctor_name,
			patient_name, patient_age, patient_gender, patient_address
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		row.Username, row.Password, row.Role,
		row.HospitalName, row.HospitalAddress, row.HospitalContact, row.DoctorSIP, row.DoctorName,
		row.PatientName, row.PatientAge, row.PatientGender, row.PatientAddress,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	return id, nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	var row userRow
	query := r.rebind(`SELECT ` + userColumns + ` FROM Users WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return row.toModel()
}

func (r *userRepository) GetByUsernameAndRole(ctx context.Context, username string, role model.Role) (*model.User, error) {
	var row userRow
	query := r.rebind(`SELECT ` + userColumns + ` FROM Users WHERE username = ? AND role = ?`)
	if err := r.db.GetContext(ctx, &row, query, username, string(role)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return row.toModel()
}

func (r *userRepository) ListHospitals(ctx context.Context) ([]string, error) {
	query := r.rebind(`
		SELECT DISTINCT hospital_name
		FROM Users
		WHERE role = ? AND hospital_name IS NOT NULL AND hospital_name <> ''
		ORDER BY hospital_name
	`)

	hospitals := []string{}
	if err := r.db.SelectContext(ctx, &hospitals, query, string(model.RoleDoctor)); err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	return hospitals, nil
}

func (r *userRepository) ListDoctorsByHospital(ctx context.Context, hospital string) ([]*model.DoctorSummary, error) {
	query := r.rebind(`
		SELECT id, COALESCE(doctor_name, '') AS doctor_name, hospital_name
		FROM Users
		WHERE role = ? AND hospital_name = ?
		ORDER BY id
	`)

	doctors := []*model.DoctorSummary{}
	if err := r.db.SelectContext(ctx, &doctors, query, string(model.RoleDoctor), hospital); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
