package jobs_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sage-sync-api/internal/domain"
	"github.com/jhoicas/sage-sync-api/internal/jobs"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

// Submit devuelve el handle de inmediato y el job termina ejecutándose.
func TestQueue_EjecutaElJob(t *testing.T) {
	q := jobs.New("test", 1, 4, logger.Nop())
	defer q.Shutdown(context.Background())

	done := make(chan struct{})
	handle, err := q.Submit("trabajo", func(ctx context.Context) { close(done) })

	require.NoError(t, err)
	assert.NotEmpty(t, handle.ID, "el handle debe traer un id")
	assert.Equal(t, "trabajo", handle.Name)
	assert.WithinDuration(t, time.Now(), handle.EnqueuedAt, time.Second)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("el job nunca se ejecutó")
	}
}

// Con un solo worker los jobs corren estrictamente en serie y en orden.
func TestQueue_UnWorkerEsSerial(t *testing.T) {
	q := jobs.New("serial", 1, 8, logger.Nop())

	var mu sync.Mutex
	var order []int
	for i := 1; i <= 4; i++ {
		i := i
		_, err := q.Submit("paso", func(ctx context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
		require.NoError(t, err)
	}
	q.Shutdown(context.Background()) // espera a que los pendientes terminen

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4}, order, "un worker ejecuta en orden FIFO")
}

// La cola llena rechaza con ErrQueueFull en lugar de bloquear al caller.
func TestQueue_LlenaRechazaSinBloquear(t *testing.T) {
	q := jobs.New("full", 1, 1, logger.Nop())
	defer q.Shutdown(context.Background())

	gate := make(chan struct{})
	defer close(gate)

	// Primer job ocupa el worker; el segundo llena el buffer.
	_, err := q.Submit("ocupa", func(ctx context.Context) { <-gate })
	require.NoError(t, err)

	// Darle tiempo al worker a tomar el primero; luego llenar el buffer.
	require.Eventually(t, func() bool {
		_, err := q.Submit("buffer", func(ctx context.Context) {})
		return err == nil
	}, time.Second, 5*time.Millisecond)

	_, err = q.Submit("desborda", func(ctx context.Context) {})
	assert.ErrorIs(t, err, domain.ErrQueueFull)
}

// Después del apagado, Submit rechaza con ErrQueueClosed.
func TestQueue_CerradaRechaza(t *testing.T) {
	q := jobs.New("closed", 1, 4, logger.Nop())
	q.Shutdown(context.Background())

	_, err := q.Submit("tarde", func(ctx context.Context) {})
	assert.ErrorIs(t, err, domain.ErrQueueClosed)
}

// Un pánico dentro de un job no tumba al worker: los siguientes jobs corren.
func TestQueue_PanicoNoTumbaAlWorker(t *testing.T) {
	q := jobs.New("panic", 1, 4, logger.Nop())

	done := make(chan struct{})
	_, err := q.Submit("explota", func(ctx context.Context) { panic("boom") })
	require.NoError(t, err)
	_, err = q.Submit("sobrevive", func(ctx context.Context) { close(done) })
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("el worker murió tras el pánico")
	}
	q.Shutdown(context.Background())
}

// Shutdown con ctx expirado cancela el ctx de los jobs en vuelo.
func TestQueue_ShutdownCancelaJobsEnVuelo(t *testing.T) {
	q := jobs.New("cancel", 1, 4, logger.Nop())

	started := make(chan struct{})
	canceled := make(chan struct{})
	_, err := q.Submit("largo", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(canceled)
	})
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	q.Shutdown(ctx)

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("el job en vuelo nunca vio la cancelación")
	}
}
