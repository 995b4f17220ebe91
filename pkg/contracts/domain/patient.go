package domain

import (
	"strconv"
	"strings"
	"time"
)

// DateFormat is the canonical date layout for admission and discharge
// dates in every file this system reads or writes.
const DateFormat = "2006-01-02"

// Raw column headers exactly as they appear in the input file. The
// loader rejects any file whose header deviates from this set or order.
const (
	ColName              = "Name"
	ColAge               = "Age"
	ColGender            = "Gender"
	ColBloodType         = "Blood Type"
	ColMedicalCondition  = "Medical Condition"
	ColAdmissionDate     = "Date of Admission"
	ColDoctor            = "Doctor"
	ColHospital          = "Hospital"
	ColInsuranceProvider = "Insurance Provider"
	ColBillingAmount     = "Billing Amount"
	ColRoomNumber        = "Room Number"
	ColAdmissionType     = "Admission Type"
	ColDischargeDate     = "Discharge Date"
	ColMedication        = "Medication"
	ColTestResults       = "Test Results"
)

// Derived column headers appended by the feature stage.
const (
	ColLengthOfStay    = "Length of Stay"
	ColAgeGroup        = "Age Group"
	ColBillingCategory = "Billing Category"
)

// RawColumns returns the expected input header in order.
func RawColumns() []string {
	return []string{
		ColName, ColAge, ColGender, ColBloodType, ColMedicalCondition,
		ColAdmissionDate, ColDoctor, ColHospital, ColInsuranceProvider,
		ColBillingAmount, ColRoomNumber, ColAdmissionType,
		ColDischargeDate, ColMedication, ColTestResults,
	}
}

// CleanedColumns returns the cleaned output header: all raw columns plus
// the three derived columns.
func CleanedColumns() []string {
	return append(RawColumns(), ColLengthOfStay, ColAgeGroup, ColBillingCategory)
}

// MLReadyColumns returns the ML-ready output header: the cleaned header
// with the Name column removed (PII minimization).
func MLReadyColumns() []string {
	cols := CleanedColumns()
	out := make([]string, 0, len(cols)-1)
	for _, c := range cols {
		if c == ColName {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Gender is a closed two-value domain. The empty string represents a
// missing value.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Valid reports whether the gender is one of the closed domain values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// CanonicalGender maps free-form text onto the closed gender domain.
// It returns false for anything outside the domain, including the
// literal "Nan"/"NaN" placeholders some exports carry.
func CanonicalGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return GenderMale, true
	case "female":
		return GenderFemale, true
	default:
		return "", false
	}
}

// BloodType is the eight-value ABO/Rh domain. The empty string
// represents a missing value.
type BloodType string

const (
	BloodAPositive  BloodType = "A+"
	BloodANegative  BloodType = "A-"
	BloodBPositive  BloodType = "B+"
	BloodBNegative  BloodType = "B-"
	BloodABPositive BloodType = "AB+"
	BloodABNegative BloodType = "AB-"
	BloodOPositive  BloodType = "O+"
	BloodONegative  BloodType = "O-"
)

// ValidBloodTypes lists the closed blood type domain in display order.
func ValidBloodTypes() []BloodType {
	return []BloodType{
		BloodAPositive, BloodANegative,
		BloodBPositive, BloodBNegative,
		BloodABPositive, BloodABNegative,
		BloodOPositive, BloodONegative,
	}
}

// Valid reports whether the blood type is one of the eight domain values.
func (b BloodType) Valid() bool {
	switch b {
	case BloodAPositive, BloodANegative, BloodBPositive, BloodBNegative,
		BloodABPositive, BloodABNegative, BloodOPositive, BloodONegative:
		return true
	}
	return false
}

// CanonicalBloodType maps free-form text (any casing, stray spaces) onto
// the closed blood type domain.
func CanonicalBloodType(s string) (BloodType, bool) {
	b := BloodType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "")))
	if b.Valid() {
		return b, true
	}
	return "", false
}

// AdmissionType is the closed admission category domain.
type AdmissionType string

const (
	AdmissionEmergency AdmissionType = "Emergency"
	AdmissionUrgent    AdmissionType = "Urgent"
	AdmissionElective  AdmissionType = "Elective"
)

// CanonicalAdmissionType maps case-insensitive text onto the known
// admission labels. Unknown labels pass through title-cased by the
// normalizer rather than being rejected; this only canonicalizes casing.
func CanonicalAdmissionType(s string) (AdmissionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "emergency":
		return AdmissionEmergency, true
	case "urgent":
		return AdmissionUrgent, true
	case "elective":
		return AdmissionElective, true
	default:
		return "", false
	}
}

// TestResult is the closed test outcome domain.
type TestResult string

const (
	TestNormal       TestResult = "Normal"
	TestAbnormal     TestResult = "Abnormal"
	TestInconclusive TestResult = "Inconclusive"
)

// CanonicalTestResult maps case-insensitive text onto the known test
// result labels.
func CanonicalTestResult(s string) (TestResult, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return TestNormal, true
	case "abnormal":
		return TestAbnormal, true
	case "inconclusive":
		return TestInconclusive, true
	default:
		return "", false
	}
}

// AgeGroup buckets age into fixed bins, lower bound inclusive.
type AgeGroup string

const (
	AgeGroupChild      AgeGroup = "Child"       // 0-17
	AgeGroupYoungAdult AgeGroup = "Young_Adult" // 18-30
	AgeGroupAdult      AgeGroup = "Adult"       // 31-50
	AgeGroupMiddleAge  AgeGroup = "Middle_Age"  // 51-65
	AgeGroupSenior     AgeGroup = "Senior"      // 66+
)

// AgeGroupFor returns the bucket for an age in whole years.
func AgeGroupFor(age int) AgeGroup {
	switch {
	case age <= 17:
		return AgeGroupChild
	case age <= 30:
		return AgeGroupYoungAdult
	case age <= 50:
		return AgeGroupAdult
	case age <= 65:
		return AgeGroupMiddleAge
	default:
		return AgeGroupSenior
	}
}

// BillingCategory is the quartile tier of a billing amount relative to
// the whole cleaned table.
type BillingCategory string

const (
	BillingLow      BillingCategory = "Low"
	BillingMedium   BillingCategory = "Medium"
	BillingHigh     BillingCategory = "High"
	BillingVeryHigh BillingCategory = "Very_High"
)

// PatientRecord is the single source of truth for one row of the
// hospital admissions table. All loaders, cleaning stages, exporters and
// reports operate on this structure.
//
// Missing values are represented as the empty string for text and
// categorical fields and as nil for numeric and date fields; the CSV
// writer renders both as an empty cell.
type PatientRecord struct {
	// Name is the patient's full name (PII). Title-cased by the
	// normalizer and dropped entirely from the ML-ready output.
	Name string `json:"name,omitempty" csv:"Name" validate:"omitempty,max=255"`

	// Age in whole years at admission.
	Age *int `json:"age,omitempty" csv:"Age" validate:"omitempty,gte=0,lte=120"`

	Gender    Gender    `json:"gender,omitempty" csv:"Gender" validate:"omitempty,oneof=Male Female"`
	BloodType BloodType `json:"blood_type,omitempty" csv:"Blood Type" validate:"omitempty,blood_type"`

	// MedicalCondition is a free-standing label; no normalization is
	// applied beyond casing.
	MedicalCondition string `json:"medical_condition,omitempty" csv:"Medical Condition"`

	AdmissionDate *time.Time `json:"admission_date,omitempty" csv:"Date of Admission"`

	Doctor   string `json:"doctor,omitempty" csv:"Doctor"`
	Hospital string `json:"hospital,omitempty" csv:"Hospital"`

	InsuranceProvider string `json:"insurance_provider,omitempty" csv:"Insurance Provider"`

	// BillingAmount is never negative after the numeric sanitizer runs.
	BillingAmount *float64 `json:"billing_amount,omitempty" csv:"Billing Amount" validate:"omitempty,gte=0"`

	RoomNumber *int `json:"room_number,omitempty" csv:"Room Number" validate:"omitempty,gte=1,lte=9999"`

	AdmissionType AdmissionType `json:"admission_type,omitempty" csv:"Admission Type"`

	DischargeDate *time.Time `json:"discharge_date,omitempty" csv:"Discharge Date"`

	// Medication stays missing when absent; absence is meaningful and is
	// never imputed.
	Medication string `json:"medication,omitempty" csv:"Medication"`

	TestResults TestResult `json:"test_results,omitempty" csv:"Test Results"`

	// Derived columns, populated by the feature stage.
	LengthOfStay    *int            `json:"length_of_stay,omitempty" csv:"Length of Stay" validate:"omitempty,gte=1"`
	AgeGroup        AgeGroup        `json:"age_group,omitempty" csv:"Age Group"`
	BillingCategory BillingCategory `json:"billing_category,omitempty" csv:"Billing Category"`
}

// fingerprintSep separates fields inside a fingerprint. It cannot occur
// in cell data read from a delimited file.
const fingerprintSep = "\x1f"

// Fingerprint returns a stable identity key over the fifteen raw
// columns. Two records are exact duplicates iff their fingerprints are
// equal; missing values compare equal to missing values.
func (r *PatientRecord) Fingerprint() string {
	var b strings.Builder
	b.Grow(128)
	b.WriteString(r.Name)
	b.WriteString(fingerprintSep)
	b.WriteString(formatIntPtr(r.Age))
	b.WriteString(fingerprintSep)
	b.WriteString(string(r.Gender))
	b.WriteString(fingerprintSep)
	b.WriteString(string(r.BloodType))
	b.WriteString(fingerprintSep)
	b.WriteString(r.MedicalCondition)
	b.WriteString(fingerprintSep)
	b.WriteString(FormatDate(r.AdmissionDate))
	b.WriteString(fingerprintSep)
	b.WriteString(r.Doctor)
	b.WriteString(fingerprintSep)
	b.WriteString(r.Hospital)
	b.WriteString(fingerprintSep)
	b.WriteString(r.InsuranceProvider)
	b.WriteString(fingerprintSep)
	b.WriteString(FormatBilling(r.BillingAmount))
	b.WriteString(fingerprintSep)
	b.WriteString(formatIntPtr(r.RoomNumber))
	b.WriteString(fingerprintSep)
	b.WriteString(string(r.AdmissionType))
	b.WriteString(fingerprintSep)
	b.WriteString(FormatDate(r.DischargeDate))
	b.WriteString(fingerprintSep)
	b.WriteString(r.Medication)
	b.WriteString(fingerprintSep)
	b.WriteString(string(r.TestResults))
	return b.String()
}

// FormatDate renders a date pointer for file output; nil becomes the
// empty cell.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateFormat)
}

// FormatBilling renders a billing amount with two decimal places; nil
// becomes the empty cell.
func FormatBilling(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// FormatInt renders an integer pointer for file output; nil becomes the
// empty cell.
func FormatInt(v *int) string {
	return formatIntPtr(v)
}

// IntPtr returns a pointer to v. Convenience for construction in tests
// and stages.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

// DatePtr returns a pointer to a date at midnight UTC.
func DatePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
