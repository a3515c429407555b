package repository

import (
	"context"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
)

// StatementRepository persistencia de estados de cuenta.
//
// GetExistingHeaderMap y GetExistingLineKeys se cargan UNA vez por pasada de
// reconciliación: el reconciler decide en memoria qué es nuevo o cambió y
// solo escribe el delta. Los inserts van por la vía masiva (CopyFrom), no
// fila a fila.
type StatementRepository interface {
	GetExistingHeaderMap(ctx context.Context) (map[int]entity.StatementHeaderRef, error)
	GetExistingLineKeys(ctx context.Context) (map[string]struct{}, error)
	BulkInsertHeaders(ctx context.Context, rows []entity.StatementHeaderRow) error
	BulkInsertLines(ctx context.Context, rows []entity.StatementLineRow) error
	UpdateHeaderAggregate(ctx context.Context, headerID int, agg entity.StatementHeaderAggregate) error

	ListProviderStatements(ctx context.Context, providerID int, search string) ([]entity.StatementInfo, error)
	GetStatementDetail(ctx context.Context, providerID, statementID int) (*entity.StatementDetail, error)
	SaveStatementPDFPath(ctx context.Context, statementID int, path string) error
	GetStatementPDFPath(ctx context.Context, statementID int) (string, error)
}
