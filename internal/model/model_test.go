package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatQueueNumber(t *testing.T) {
	assert.Equal(t, "1-01", FormatQueueNumber(1, 1))
	assert.Equal(t, "1-02", FormatQueueNumber(1, 2))
	assert.Equal(t, "12-10", FormatQueueNumber(12, 10))
	assert.Equal(t, "3-100", FormatQueueNumber(3, 100))
}

func TestPrescriptionFilename(t *testing.T) {
	assert.Equal(t, "Siti_Aminah_resep_dokter_1-01.pdf", PrescriptionFilename("Siti Aminah", "1-01"))
	assert.Equal(t, "a_b_c_resep_dokter_1-01.pdf", PrescriptionFilename("a/b\\c", "1-01"))
	assert.Equal(t, "..__resep_dokter_.._x.pdf", PrescriptionFilename("../", "../x"))
}

func TestCheckProfile(t *testing.T) {
	cases := []struct {
		name    string
		user    *User
		wantErr bool
	}{
		{"doctor", &User{Role: RoleDoctor, Profile: &DoctorProfile{Name: "Dr. Andi"}}, false},
		{"patient", &User{Role: RolePatient, Profile: &PatientProfile{Name: "Siti"}}, false},
		{"pharmacy", &User{Role: RolePharmacy, Profile: &PharmacyProfile{}}, false},
		{"mismatch", &User{Role: RoleDoctor, Profile: &PatientProfile{}}, true},
		{"missing", &User{Role: RolePatient}, true},
		{"unknown role", &User{Role: "nurse", Profile: &PharmacyProfile{}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.user.CheckProfile()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignupRequestToUser(t *testing.T) {
	req := &SignupRequest{
		Username: "drA",
		Role:     RoleDoctor,
		Doctor:   &DoctorProfile{Name: "Dr. Andi"},
		Patient:  &PatientProfile{Name: "ignored"},
	}
	u := req.ToUser()
	doctor, ok := u.Doctor()
	require.True(t, ok)
	assert.Equal(t, "Dr. Andi", doctor.Name)
	_, ok = u.Patient()
	assert.False(t, ok)

	req = &SignupRequest{Username: "apotek", Role: RolePharmacy}
	assert.NoError(t, req.ToUser().CheckProfile())

	req = &SignupRequest{Username: "pat", Role: RolePatient}
	assert.Error(t, req.ToUser().CheckProfile())
}

func TestClinicClock(t *testing.T) {
	clock, err := ClinicClock("")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", clock().Location().String())

	_, err = ClinicClock("Mars/Olympus")
	assert.Error(t, err)

	ts := time.Date(2024, 5, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "2024-05-01 09:05:07", FormatTimestamp(ts))
}
