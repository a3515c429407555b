package sync

import (
	"context"
	stdsync "sync"

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
	"github.com/jhoicas/sage-sync-api/pkg/logger"
)

// Fakes compartidos por los tests del motor de sincronización. Se programan
// con funciones por operación; toda operación sin programar falla en cero
// (nil, 0, false) para que los tests declaren explícitamente lo que usan.

type fakeLmsRepo struct {
	mu stdsync.Mutex

	course       *entity.Course
	learners     []*entity.Learner
	creds        *entity.ProviderCredentials
	providerInfo *entity.ProviderInfo
	resolution   *entity.CourseResolution

	cachedCustomerIDs map[int]int
	cachedProductIDs  map[int]int

	persistedCustomerIDs map[int]int
	persistedRespCodes   map[int]int
	persistedProductIDs  map[int]int
	persistedCompanyIDs  map[int]int
}

func newFakeLmsRepo() *fakeLmsRepo {
	return &fakeLmsRepo{
		cachedCustomerIDs:    map[int]int{},
		cachedProductIDs:     map[int]int{},
		persistedCustomerIDs: map[int]int{},
		persistedRespCodes:   map[int]int{},
		persistedProductIDs:  map[int]int{},
		persistedCompanyIDs:  map[int]int{},
	}
}

func (f *fakeLmsRepo) GetCourse(ctx context.Context, courseID int) (*entity.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.course == nil || f.course.ID != courseID {
		return nil, nil
	}
	return f.course, nil
}

func (f *fakeLmsRepo) GetLearnersForCourse(ctx context.Context, courseID int) ([]*entity.Learner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.learners, nil
}

func (f *fakeLmsRepo) GetCachedCustomerID(ctx context.Context, learnerID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cachedCustomerIDs[learnerID], nil
}

func (f *fakeLmsRepo) PersistCustomerID(ctx context.Context, learnerID, courseID, customerID, responseCode int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persistedCustomerIDs[learnerID] = customerID
	f.persistedRespCodes[learnerID] = responseCode
	return nil
}

func (f *fakeLmsRepo) GetCachedProductID(ctx context.Context, courseID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cachedProductIDs[courseID], nil
}

func (f *fakeLmsRepo) PersistProductID(ctx context.Context, courseID, productID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persistedProductIDs[courseID] = productID
	return nil
}

func (f *fakeLmsRepo) GetCredentials(ctx context.Context, providerID int) (*entity.ProviderCredentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds, nil
}

func (f *fakeLmsRepo) PersistCompanyID(ctx context.Context, providerID, companyID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persistedCompanyIDs[providerID] = companyID
	return nil
}

func (f *fakeLmsRepo) GetProviderInfo(ctx context.Context, providerID int) (*entity.ProviderInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.providerInfo == nil || f.providerInfo.ID != providerID {
		return nil, nil
	}
	return f.providerInfo, nil
}

func (f *fakeLmsRepo) ResolveCourseAndLearner(ctx context.Context, providerID int, documentReference string) (*entity.CourseResolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolution == nil || f.resolution.Reference != documentReference {
		return nil, nil
	}
	return f.resolution, nil
}

type fakeSageClient struct {
	mu stdsync.Mutex

	ensureCompanyFn     func(ctx context.Context, creds *entity.ProviderCredentials, updater ProviderCompanyUpdater) (int, error)
	getOrCreateProdFn   func(ctx context.Context, creds *entity.ProviderCredentials, course *entity.Course) (int, error)
	getOrCreateCustFn   func(ctx context.Context, creds *entity.ProviderCredentials, learner *entity.Learner, course *entity.Course) (CustomerResult, error)
	hasUnpaidInvoiceFn  func(ctx context.Context, creds *entity.ProviderCredentials, customerID int, reference string) (bool, error)
	createInvoiceFn     func(ctx context.Context, creds *entity.ProviderCredentials, req InvoiceRequest) (*entity.InvoiceResult, error)
	getStatementsFn     func(ctx context.Context, creds *entity.ProviderCredentials, page, pageSize int) ([]entity.StatementEntry, bool, error)

	companyCalls   int
	productCalls   int
	customerCalls  int
	unpaidCalls    int
	invoiceCalls   int
	statementCalls int
}

func (f *fakeSageClient) EnsureCompanyID(ctx context.Context, creds *entity.ProviderCredentials, updater ProviderCompanyUpdater) (int, error) {
	f.mu.Lock()
	f.companyCalls++
	fn := f.ensureCompanyFn
	f.mu.Unlock()
	if fn == nil {
		return 0, nil
	}
	return fn(ctx, creds, updater)
}

func (f *fakeSageClient) GetOrCreateProduct(ctx context.Context, creds *entity.ProviderCredentials, course *entity.Course) (int, error) {
	f.mu.Lock()
	f.productCalls++
	fn := f.getOrCreateProdFn
	f.mu.Unlock()
	if fn == nil {
		return 0, nil
	}
	return fn(ctx, creds, course)
}

func (f *fakeSageClient) GetOrCreateCustomer(ctx context.Context, creds *entity.ProviderCredentials, learner *entity.Learner, course *entity.Course) (CustomerResult, error) {
	f.mu.Lock()
	f.customerCalls++
	fn := f.getOrCreateCustFn
	f.mu.Unlock()
	if fn == nil {
		return CustomerResult{}, nil
	}
	return fn(ctx, creds, learner, course)
}

func (f *fakeSageClient) HasUnpaidInvoice(ctx context.Context, creds *entity.ProviderCredentials, customerID int, reference string) (bool, error) {
	f.mu.Lock()
	f.unpaidCalls++
	fn := f.hasUnpaidInvoiceFn
	f.mu.Unlock()
	if fn == nil {
		return false, nil
	}
	return fn(ctx, creds, customerID, reference)
}

func (f *fakeSageClient) CreateInvoice(ctx context.Context, creds *entity.ProviderCredentials, req InvoiceRequest) (*entity.InvoiceResult, error) {
	f.mu.Lock()
	f.invoiceCalls++
	fn := f.createInvoiceFn
	f.mu.Unlock()
	if fn == nil {
		return &entity.InvoiceResult{Success: true}, nil
	}
	return fn(ctx, creds, req)
}

func (f *fakeSageClient) GetCustomerStatements(ctx context.Context, creds *entity.ProviderCredentials, page, pageSize int) ([]entity.StatementEntry, bool, error) {
	f.mu.Lock()
	f.statementCalls++
	fn := f.getStatementsFn
	f.mu.Unlock()
	if fn == nil {
		return nil, false, nil
	}
	return fn(ctx, creds, page, pageSize)
}

func (f *fakeSageClient) calls() (company, product, customer, unpaid, invoice int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.companyCalls, f.productCalls, f.customerCalls, f.unpaidCalls, f.invoiceCalls
}

type fakeStatementRepo struct {
	mu stdsync.Mutex

	headerMap map[int]entity.StatementHeaderRef
	lineKeys  map[string]struct{}

	insertedHeaders []entity.StatementHeaderRow
	insertedLines   []entity.StatementLineRow
	updates         map[int]entity.StatementHeaderAggregate

	bulkHeaderCalls int
	bulkLineCalls   int
}

func newFakeStatementRepo() *fakeStatementRepo {
	return &fakeStatementRepo{
		headerMap: map[int]entity.StatementHeaderRef{},
		lineKeys:  map[string]struct{}{},
		updates:   map[int]entity.StatementHeaderAggregate{},
	}
}

func (f *fakeStatementRepo) GetExistingHeaderMap(ctx context.Context) (map[int]entity.StatementHeaderRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := make(map[int]entity.StatementHeaderRef, len(f.headerMap))
	for k, v := range f.headerMap {
		m[k] = v
	}
	return m, nil
}

func (f *fakeStatementRepo) GetExistingLineKeys(ctx context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := make(map[string]struct{}, len(f.lineKeys))
	for k := range f.lineKeys {
		m[k] = struct{}{}
	}
	return m, nil
}

func (f *fakeStatementRepo) BulkInsertHeaders(ctx context.Context, rows []entity.StatementHeaderRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkHeaderCalls++
	f.insertedHeaders = append(f.insertedHeaders, rows...)
	nextID := len(f.headerMap) + 1
	for _, row := range rows {
		f.headerMap[row.CustomerID] = entity.StatementHeaderRef{HeaderID: nextID, RowHash: row.Aggregate.RowHash}
		nextID++
	}
	return nil
}

func (f *fakeStatementRepo) BulkInsertLines(ctx context.Context, rows []entity.StatementLineRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkLineCalls++
	f.insertedLines = append(f.insertedLines, rows...)
	for _, row := range rows {
		f.lineKeys[row.DedupKey] = struct{}{}
	}
	return nil
}

func (f *fakeStatementRepo) UpdateHeaderAggregate(ctx context.Context, headerID int, agg entity.StatementHeaderAggregate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[headerID] = agg
	for customerID, ref := range f.headerMap {
		if ref.HeaderID == headerID {
			ref.RowHash = agg.RowHash
			f.headerMap[customerID] = ref
		}
	}
	return nil
}

func (f *fakeStatementRepo) ListProviderStatements(ctx context.Context, providerID int, search string) ([]entity.StatementInfo, error) {
	return nil, nil
}

func (f *fakeStatementRepo) GetStatementDetail(ctx context.Context, providerID, statementID int) (*entity.StatementDetail, error) {
	return nil, nil
}

func (f *fakeStatementRepo) SaveStatementPDFPath(ctx context.Context, statementID int, path string) error {
	return nil
}

func (f *fakeStatementRepo) GetStatementPDFPath(ctx context.Context, statementID int) (string, error) {
	return "", nil
}

func testLogger() *logger.Logger { return logger.Nop() }
