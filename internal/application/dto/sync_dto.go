package dto

import "time"

// JobResponse recibo de un job encolado. El resultado del job no viaja en la
// respuesta; es observable por logs.
type JobResponse struct {
	JobID      string    `json:"job_id"`
	Name       string    `json:"name"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Status     string    `json:"status"` // siempre "queued" al responder
}

// DocumentResolutionResponse curso (y alumno, si es determinable) detrás de
// la referencia de un documento de Sage. learner_id en 0 significa que la
// referencia sola no identifica un alumno.
type DocumentResolutionResponse struct {
	ProviderID    int    `json:"provider_id"`
	ProviderName  string `json:"provider_name"`
	Reference     string `json:"reference"`
	CourseID      int    `json:"course_id"`
	CourseTitle   string `json:"course_title"`
	SageProductID int    `json:"sage_product_id"`
	LearnerID     int    `json:"learner_id,omitempty"`
}
