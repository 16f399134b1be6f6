package models

// Employee is the HR record a user account may be linked to.
type Employee struct {
	ID         int64  `json:"id"`
	Matricule  string `json:"matricule"`
	FullName   string `json:"fullName"`
	Department string `json:"department"`
	Position   string `json:"position"`
}
