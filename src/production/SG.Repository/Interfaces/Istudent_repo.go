package interfaces

import (
	"context"

	sgmodels "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Models"
)

// StudentRepository reads student records from the remote directory.
// Both lookups return (nil, nil) when no record matches; an error means
// the lookup itself failed and the caller should deny access.
type StudentRepository interface {
	// GetByCardID performs a point read keyed by the RFID card id.
	GetByCardID(ctx context.Context, cardID string) (*sgmodels.Student, error)

	// FindByFingerprintID scans every student record and returns the
	// first one whose fprints contains the given id. Linear in the
	// number of registered students; scan order is not defined.
	FindByFingerprintID(ctx context.Context, fingerprintID int) (*sgmodels.Student, error)
}
