package prescription

import (
	"fmt"
	"strings"

	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/pkg/validator"
)

// Compiler assembles the document content of a prescription.
type Compiler struct {
	validate validator.Validator
}

func NewCompiler(validate validator.Validator) *Compiler {
	return &Compiler{validate: validate}
}

// Compile validates the input and lays the content out in page order:
// letterhead, date and location, one block per item, patient footer.
func (c *Compiler) Compile(doctor *model.DoctorProfile, patient *model.PatientProfile, input *model.PrescriptionInput) (*model.PrescriptionDocument, error) {
	if doctor == nil {
		return nil, fmt.Errorf("doctor profile is required")
	}
	if patient == nil {
		return nil, fmt.Errorf("patient profile is required")
	}
	if err := c.validate.Validate(input); err != nil {
		return nil, err
	}

	doc := &model.PrescriptionDocument{
		Header: model.Section{Lines: []string{
			doctor.HospitalName,
			fmt.Sprintf("Dokter: %s | SIP: %s", doctor.Name, doctor.LicenseID),
			"Alamat: " + doctor.HospitalAddress,
			"Kontak: " + doctor.HospitalContact,
		}},
		DateLocation: model.Section{Lines: []string{
			fmt.Sprintf("%s, %s", input.Location, input.CreatedAt),
		}},
		Items: make([]model.Section, 0, len(input.Items)),
		Footer: model.Section{Lines: []string{
			"Nama         : " + patient.Name,
			"Jenis Kelamin: " + patient.Gender,
			fmt.Sprintf("Umur         : %d tahun", patient.Age),
			"Alamat       : " + patient.Address,
		}},
		Signature: fmt.Sprintf("%s - %s", doctor.HospitalName, doctor.Name),
	}

	for _, item := range input.Items {
		doc.Items = append(doc.Items, model.Section{Lines: []string{
			"R/ " + joinNonEmpty(", ", item.DrugName, item.DosageForm, item.Container, strings.TrimSpace(item.Quantity)),
			"S " + joinNonEmpty(" ", item.Frequency, item.Dose, item.Notes),
		}})
	}

	return doc, nil
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
