package billing

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// maxBatch tope de documentos por corrida de envío masivo.
const maxBatch = 500

// BatchResult resultado de un envío masivo; Results conserva el orden de los IDs.
type BatchResult struct {
	BatchID string
	Results []DispatchResult
	Sent    int
	Failed  int
}

// SendAllPending envía todos los documentos pendientes con un número acotado de workers.
// Un documento que falla no detiene a los demás.
func (o *Orchestrator) SendAllPending(ctx context.Context) (*BatchResult, error) {
	ids, err := o.docs.ListIDsByStatus(ctx, entity.StatusPending, maxBatch)
	if err != nil {
		return nil, err
	}
	batch := &BatchResult{BatchID: uuid.NewString(), Results: make([]DispatchResult, len(ids))}
	log := o.log.Zerolog().With().Str("batch_id", batch.BatchID).Logger()
	if len(ids) == 0 {
		log.Debug().Msg("sin documentos pendientes")
		return batch, nil
	}
	log.Info().Int("documents", len(ids)).Int("workers", o.cfg.Workers).Msg("envío masivo iniciado")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if gctx.Err() != nil {
				batch.Results[i] = DispatchResult{DocumentID: id, Err: gctx.Err()}
				return nil
			}
			res, _ := o.Dispatch(gctx, id)
			batch.Results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range batch.Results {
		if r.Status == entity.StatusSent && r.Err == nil {
			batch.Sent++
		} else {
			batch.Failed++
		}
	}
	log.Info().Int("sent", batch.Sent).Int("failed", batch.Failed).Msg("envío masivo terminado")
	return batch, ctx.Err()
}
