package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
)

func batchFixture(learnerCount int) (*fakeLmsRepo, *entity.Course) {
	repo := newFakeLmsRepo()
	course := &entity.Course{
		ID:               3,
		ProviderID:       7,
		Title:            "Curso de Soldadura",
		ProjectReference: "PRJ-2026-03",
		Value:            decimal.NewFromInt(2500),
		SageProductID:    810,
	}
	repo.course = course
	repo.creds = &entity.ProviderCredentials{ProviderID: 7, APIKey: "k", Username: "u", Password: "p", CompanyID: 99}
	for i := 1; i <= learnerCount; i++ {
		repo.learners = append(repo.learners, &entity.Learner{ID: i, SageCustomerID: 1000 + i})
	}
	return repo, course
}

func newDriverForTest(repo *fakeLmsRepo, sage *fakeSageClient, maxConcurrency int) *BatchDriver {
	resolver := NewResolver(sage, repo, testLogger())
	workflow := NewInvoiceWorkflow(resolver, sage, testLogger())
	return NewBatchDriver(repo, resolver, workflow, maxConcurrency, testLogger())
}

// Curso inexistente: no-op terminal, sin error y sin llamadas remotas.
func TestRunBatch_CursoInexistenteEsNoOp(t *testing.T) {
	repo := newFakeLmsRepo()
	sage := &fakeSageClient{}
	d := newDriverForTest(repo, sage, 5)

	err := d.RunCourseInvoiceBatch(context.Background(), 42)

	require.NoError(t, err)
	company, product, customer, unpaid, invoice := sage.calls()
	assert.Zero(t, company+product+customer+unpaid+invoice, "curso inexistente no debe tocar Sage")
}

// Curso sin alumnos: las resoluciones compartidas corren pero no hay fan-out.
func TestRunBatch_SinAlumnosNoHayFanOut(t *testing.T) {
	repo, _ := batchFixture(0)
	sage := &fakeSageClient{}
	d := newDriverForTest(repo, sage, 5)

	err := d.RunCourseInvoiceBatch(context.Background(), 3)

	require.NoError(t, err)
	_, _, _, unpaid, invoice := sage.calls()
	assert.Zero(t, unpaid, "sin alumnos no hay chequeos de dedup")
	assert.Zero(t, invoice, "sin alumnos no hay facturas")
}

// El fallo al resolver company aborta el lote entero, antes del fan-out.
func TestRunBatch_FalloDeCompanyAbortaElLote(t *testing.T) {
	repo, _ := batchFixture(4)
	repo.creds.CompanyID = 0
	sage := &fakeSageClient{
		ensureCompanyFn: func(ctx context.Context, creds *entity.ProviderCredentials, updater ProviderCompanyUpdater) (int, error) {
			return 0, errors.New("sage: 401 unauthorized")
		},
	}
	d := newDriverForTest(repo, sage, 5)

	err := d.RunCourseInvoiceBatch(context.Background(), 3)

	require.Error(t, err)
	_, _, _, unpaid, invoice := sage.calls()
	assert.Zero(t, unpaid+invoice, "con company sin resolver nadie debe facturar")
}

// Fallo parcial: el error de un alumno no cancela a los demás.
func TestRunBatch_FalloDeUnAlumnoNoCancelaHermanos(t *testing.T) {
	repo, _ := batchFixture(6)
	var mu stdsync.Mutex
	invoiced := map[int]bool{}
	sage := &fakeSageClient{
		hasUnpaidInvoiceFn: func(ctx context.Context, creds *entity.ProviderCredentials, customerID int, reference string) (bool, error) {
			if customerID == 1003 {
				return false, errors.New("sage: 500 internal")
			}
			return false, nil
		},
		createInvoiceFn: func(ctx context.Context, creds *entity.ProviderCredentials, req InvoiceRequest) (*entity.InvoiceResult, error) {
			mu.Lock()
			invoiced[req.CustomerID] = true
			mu.Unlock()
			return &entity.InvoiceResult{Success: true}, nil
		},
	}
	d := newDriverForTest(repo, sage, 5)

	err := d.RunCourseInvoiceBatch(context.Background(), 3)

	require.NoError(t, err, "el fallo parcial no es un error del lote")
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, invoiced, 5, "los otros cinco alumnos deben facturarse")
	assert.False(t, invoiced[1003], "el alumno fallido no factura")
}

// El cap de concurrencia limita los workflows en vuelo.
func TestRunBatch_RespetaElCapDeConcurrencia(t *testing.T) {
	const limit = 3
	repo, _ := batchFixture(20)

	var mu stdsync.Mutex
	inFlight, maxInFlight := 0, 0
	gate := make(chan struct{})
	sage := &fakeSageClient{
		hasUnpaidInvoiceFn: func(ctx context.Context, creds *entity.ProviderCredentials, customerID int, reference string) (bool, error) {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()
			<-gate
			mu.Lock()
			inFlight--
			mu.Unlock()
			return true, nil // dedup: no crea factura, termina rápido
		},
	}
	d := newDriverForTest(repo, sage, limit)

	done := make(chan error, 1)
	go func() { done <- d.RunCourseInvoiceBatch(context.Background(), 3) }()

	// Liberar a todos los workers y esperar el lote.
	close(gate)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxInFlight, limit, "nunca debe haber más workflows en vuelo que el cap")
}

// Un pánico en un workflow se recupera y cuenta como fallo, sin tumbar el lote.
func TestRunBatch_PanicoEnWorkflowNoTumbaElLote(t *testing.T) {
	repo, _ := batchFixture(3)
	var mu stdsync.Mutex
	invoiced := 0
	sage := &fakeSageClient{
		hasUnpaidInvoiceFn: func(ctx context.Context, creds *entity.ProviderCredentials, customerID int, reference string) (bool, error) {
			if customerID == 1002 {
				panic("respuesta corrupta")
			}
			return false, nil
		},
		createInvoiceFn: func(ctx context.Context, creds *entity.ProviderCredentials, req InvoiceRequest) (*entity.InvoiceResult, error) {
			mu.Lock()
			invoiced++
			mu.Unlock()
			return &entity.InvoiceResult{Success: true}, nil
		},
	}
	d := newDriverForTest(repo, sage, 5)

	err := d.RunCourseInvoiceBatch(context.Background(), 3)

	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, invoiced, "los hermanos del workflow que entró en pánico deben facturarse")
}
