// Package jobs implementa una cola de trabajos en proceso: Submit devuelve
// un handle opaco de inmediato y un pool fijo de workers ejecuta los jobs en
// background. Es la pieza que desacopla el request HTTP del lote de
// sincronización (fire-and-forget).
package jobs

import (
	"context"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	appsync "github.com/jhoicas/sage-sync-api/internal/application/sync"
	"github.com/jhoicas/sage-sync-api/internal/domain"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

var _ appsync.JobQueue = (*Queue)(nil)

type task struct {
	handle appsync.JobHandle
	fn     func(ctx context.Context)
}

// Queue cola con buffer acotado y workers fijos. Un pánico dentro de un job
// se recupera y se loggea; nunca tumba al worker.
type Queue struct {
	name   string
	tasks  chan task
	wg     stdsync.WaitGroup
	cancel context.CancelFunc
	closed atomic.Bool
	log    *logger.Logger
}

// New crea la cola y arranca sus workers. workers <= 0 usa 1 (una cola de un
// solo worker ejecuta sus jobs estrictamente en serie — así corre la
// reconciliación de estados de cuenta). buffer <= 0 usa 16.
func New(name string, workers, buffer int, log *logger.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		name:   name,
		tasks:  make(chan task, buffer),
		cancel: cancel,
		log:    log.Named("jobs").WithField("queue", name),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	return q
}

// Submit encola un job y devuelve su handle sin bloquear en la ejecución.
// Retorna error si la cola está llena o ya cerrada.
func (q *Queue) Submit(name string, fn func(ctx context.Context)) (appsync.JobHandle, error) {
	if q.closed.Load() {
		return appsync.JobHandle{}, domain.ErrQueueClosed
	}
	handle := appsync.JobHandle{
		ID:         uuid.New().String(),
		Name:       name,
		EnqueuedAt: time.Now(),
	}
	select {
	case q.tasks <- task{handle: handle, fn: fn}:
		return handle, nil
	default:
		return appsync.JobHandle{}, domain.ErrQueueFull
	}
}

// Shutdown deja de aceptar jobs y espera a que los pendientes terminen, o
// cancela los en vuelo si ctx expira primero.
func (q *Queue) Shutdown(ctx context.Context) {
	if q.closed.Swap(true) {
		return
	}
	close(q.tasks)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		q.cancel() // cancela los jobs en vuelo y espera a que suelten
		<-done
	}
	q.cancel()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for t := range q.tasks {
		q.run(ctx, t)
	}
}

func (q *Queue) run(ctx context.Context, t task) {
	defer func() {
		if rec := recover(); rec != nil {
			q.log.Error().
				Str("job_id", t.handle.ID).
				Str("job", t.handle.Name).
				Interface("panic", rec).
				Msg("pánico en job de background")
		}
	}()
	start := time.Now()
	q.log.Info().Str("job_id", t.handle.ID).Str("job", t.handle.Name).Msg("job iniciado")
	t.fn(ctx)
	q.log.Info().
		Str("job_id", t.handle.ID).
		Str("job", t.handle.Name).
		Dur("elapsed", time.Since(start)).
		Msg("job terminado")
}
