package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sage-sync-api/internal/domain"
	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
)

func TestResolveDocumentReference_EncuentraCursoYAlumno(t *testing.T) {
	repo := newFakeLmsRepo()
	repo.providerInfo = &entity.ProviderInfo{ID: 7, Name: "Academia Delta"}
	repo.resolution = &entity.CourseResolution{
		CourseID:      3,
		CourseTitle:   "Curso de Soldadura",
		SageProductID: 810,
		LearnerID:     11,
		Reference:     "PRJ-2026-03",
	}
	lookup := NewDocumentLookup(repo, testLogger())

	provider, resolution, err := lookup.ResolveDocumentReference(context.Background(), 7, "PRJ-2026-03")

	require.NoError(t, err)
	assert.Equal(t, "Academia Delta", provider.Name)
	assert.Equal(t, 3, resolution.CourseID)
	assert.Equal(t, 11, resolution.LearnerID)
}

func TestResolveDocumentReference_ReferenciaVacia(t *testing.T) {
	lookup := NewDocumentLookup(newFakeLmsRepo(), testLogger())

	_, _, err := lookup.ResolveDocumentReference(context.Background(), 7, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestResolveDocumentReference_ProveedorInexistente(t *testing.T) {
	lookup := NewDocumentLookup(newFakeLmsRepo(), testLogger())

	_, _, err := lookup.ResolveDocumentReference(context.Background(), 99, "PRJ-2026-03")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveDocumentReference_ReferenciaSinCurso(t *testing.T) {
	repo := newFakeLmsRepo()
	repo.providerInfo = &entity.ProviderInfo{ID: 7, Name: "Academia Delta"}
	lookup := NewDocumentLookup(repo, testLogger())

	_, _, err := lookup.ResolveDocumentReference(context.Background(), 7, "PRJ-DESCONOCIDO")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
