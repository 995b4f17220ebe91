package exporter

import (
	"medcli/pkg/contracts/domain"
)

// cleanedRow renders one record in cleaned-output column order: the
// fifteen raw columns followed by the three derived ones. Missing values
// become empty cells.
func cleanedRow(r *domain.PatientRecord) []string {
	return []string{
		r.Name,
		domain.FormatInt(r.Age),
		string(r.Gender),
		string(r.BloodType),
		r.MedicalCondition,
		domain.FormatDate(r.AdmissionDate),
		r.Doctor,
		r.Hospital,
		r.InsuranceProvider,
		domain.FormatBilling(r.BillingAmount),
		domain.FormatInt(r.RoomNumber),
		string(r.AdmissionType),
		domain.FormatDate(r.DischargeDate),
		r.Medication,
		string(r.TestResults),
		domain.FormatInt(r.LengthOfStay),
		string(r.AgeGroup),
		string(r.BillingCategory),
	}
}

// mlReadyRow renders one record in ML-ready column order, which is the
// cleaned order with the Name column dropped.
func mlReadyRow(r *domain.PatientRecord) []string {
	return cleanedRow(r)[1:]
}
