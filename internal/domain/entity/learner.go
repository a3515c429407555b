package entity

// Learner alumno inscrito en un curso, mapeado a un cliente de Sage.
// SageCustomerID en 0 significa "sin resolver" (ver Course.SageProductID).
type Learner struct {
	ID                 int
	PersonID           int
	SageCustomerID     int
	FullName           string
	Phone              string
	Mobile             string
	Email              string
	PhysicalAddress1   string
	PhysicalAddress2   string
	PhysicalAddress3   string
	PhysicalPostalCode string
	PostalAddress1     string
	PostalAddress2     string
	PostalAddress3     string
	PostalAddressCode  string
}
