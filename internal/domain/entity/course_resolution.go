package entity

// CourseResolution resultado de resolver curso + alumno a partir de la
// referencia de un documento de Sage (camino inverso al de facturación).
type CourseResolution struct {
	CourseID      int
	CourseTitle   string
	SageProductID int
	LearnerID     int
	Reference     string
}
