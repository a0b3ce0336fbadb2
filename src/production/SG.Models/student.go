package sgmodels

import "time"

// Fingerprint is one enrolled fingerprint template reference on a student
// record. Only the numeric id is used for verification; the rest is
// display-only metadata.
type Fingerprint struct {
	ID         int       `bson:"id" json:"id"`
	Label      string    `bson:"label,omitempty" json:"label,omitempty"`
	EnrolledAt time.Time `bson:"enrolled_at,omitempty" json:"enrolled_at,omitempty"`
}

// Student is a user record in the remote directory, keyed by the RFID card
// identifier. The relay never mutates these records.
type Student struct {
	CardID     string        `bson:"_id" json:"card_id"`
	Name       string        `bson:"name,omitempty" json:"name,omitempty"`
	StudentID  string        `bson:"student_id,omitempty" json:"student_id,omitempty"`
	Course     string        `bson:"course,omitempty" json:"course,omitempty"`
	YearLevel  string        `bson:"year_level,omitempty" json:"year_level,omitempty"`
	Email      string        `bson:"email,omitempty" json:"email,omitempty"`
	Registered bool          `bson:"registered" json:"registered"`
	Fprints    []Fingerprint `bson:"fprints,omitempty" json:"fprints,omitempty"`
}

// HasFingerprint reports whether the student has an enrolled fingerprint
// with the given id.
func (s *Student) HasFingerprint(id int) bool {
	for _, fp := range s.Fprints {
		if fp.ID == id {
			return true
		}
	}
	return false
}
