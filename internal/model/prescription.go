package model

import "strings"

// PrescriptionStatusPending is the status every new record starts with.
// Status is otherwise free text set by the pharmacy.
const PrescriptionStatusPending = "Pending"

// PrescriptionRecord tracks a generated prescription document.
type PrescriptionRecord struct {
	ID            int64  `json:"id" db:"id"`
	Filename      string `json:"pdf_filename" db:"pdf_filename"`
	CreatedAt     string `json:"created_at" db:"created_at"`
	Status        string `json:"status" db:"status"`
	FileAvailable bool   `json:"file_available" db:"-"`
}

// LineItem is one drug on a prescription. Quantity uses Roman numerals.
type LineItem struct {
	DrugName   string `json:"drug_name" binding:"required,max=128" validate:"required,max=128"`
	DosageForm string `json:"dosage_form" binding:"required,max=64" validate:"required,max=64"`
	Container  string `json:"container" binding:"max=64" validate:"max=64"`
	Quantity   string `json:"quantity" binding:"required,roman" validate:"required,roman"`
	Frequency  string `json:"frequency" binding:"required,max=64" validate:"required,max=64"`
	Dose       string `json:"dose" binding:"required,max=64" validate:"required,max=64"`
	Notes      string `json:"notes" binding:"max=256" validate:"max=256"`
}

// PrescriptionInput is everything the compiler needs besides the two profiles.
type PrescriptionInput struct {
	Location  string     `json:"location" validate:"required,max=128"`
	CreatedAt string     `json:"created_at" validate:"required"`
	Items     []LineItem `json:"items" validate:"required,min=1,dive"`
}

type CreatePrescriptionRequest struct {
	QueueNumber string     `json:"queue_number" binding:"required,max=32"`
	Location    string     `json:"location" binding:"required,max=128"`
	Items       []LineItem `json:"items" binding:"required,min=1,dive"`
}

type UpdatePrescriptionStatusRequest struct {
	Status string `json:"status" binding:"required,max=64"`
}

// PrescriptionResult is returned to the doctor after a prescription is finalized.
type PrescriptionResult struct {
	Record      *PrescriptionRecord `json:"record"`
	QueueNumber string              `json:"queue_number"`
}

var filenameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// PrescriptionFilename is the conventional output name,
// "{patient_name_with_underscores}_resep_dokter_{queue_number}.pdf".
// Path separators are replaced as well so the name stays inside the output directory.
func PrescriptionFilename(patientName, queueNumber string) string {
	return filenameReplacer.Replace(patientName) + "_resep_dokter_" + filenameReplacer.Replace(queueNumber) + ".pdf"
}

// Section is a run of lines laid out together.
type Section struct {
	Lines []string `json:"lines"`
}

// PrescriptionDocument is the renderable content of a prescription, in
// page order: header, date/location line, one block per item, footer.
type PrescriptionDocument struct {
	Header       Section   `json:"header"`
	DateLocation Section   `json:"date_location"`
	Items        []Section `json:"items"`
	Footer       Section   `json:"footer"`
	// Signature is printed at the bottom margin.
	Signature string `json:"signature"`
}

// Sections returns every section in page order.
func (d *PrescriptionDocument) Sections() []Section {
	out := make([]Section, 0, len(d.Items)+3)
	out = append(out, d.Header, d.DateLocation)
	out = append(out, d.Items...)
	return append(out, d.Footer)
}
