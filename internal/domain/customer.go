package domain

import "time"

type MedicalStatus string

const (
	MedicalStatusPending  MedicalStatus = "PENDING"
	MedicalStatusApproved MedicalStatus = "APPROVED"
	MedicalStatusRejected MedicalStatus = "REJECTED"
)

type CertificationStatus string

const (
	CertificationStatusPending   CertificationStatus = "PENDING"
	CertificationStatusCompleted CertificationStatus = "COMPLETED"
)

type Customer struct {
	ID                  string
	Name                string
	Email               string
	BirthDate           time.Time
	Document            string
	Phone               string
	Country             string
	Address             string
	MedicalStatus       MedicalStatus
	CertificationStatus CertificationStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsEligible reports whether the customer may travel: medical clearance approved and
// every certification completed.
func (c *Customer) IsEligible() bool {
	return c.MedicalStatus == MedicalStatusApproved && c.CertificationStatus == CertificationStatusCompleted
}

// MedicalClearance is a single verification event. The most recent one is authoritative.
type MedicalClearance struct {
	ID         string
	CustomerID string
	Approved   bool
	Details    string
	VerifiedAt time.Time
}

type Certification struct {
	ID          string
	CustomerID  string
	Description string
	Completed   bool
	CertifiedAt time.Time
}

// MedicalStatusFor maps a verification outcome to the customer's medical status.
// There is no intermediate state: a rejection is final until a newer verification.
func MedicalStatusFor(approved bool) MedicalStatus {
	if approved {
		return MedicalStatusApproved
	}
	return MedicalStatusRejected
}

// NextCertificationStatus is the one-way ratchet for certification status. It moves to
// Completed once every certification on file is complete and never moves back.
func NextCertificationStatus(current CertificationStatus, certs []Certification) CertificationStatus {
	if current == CertificationStatusCompleted {
		return current
	}
	if len(certs) == 0 {
		return current
	}
	for _, c := range certs {
		if !c.Completed {
			return current
		}
	}
	return CertificationStatusCompleted
}
