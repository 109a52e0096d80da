package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	apperrors "banketl/internal/errors"
	"banketl/internal/extractor"
	"banketl/internal/storage"
	"banketl/internal/transform"
	"banketl/pkg/contracts/domain"
)

// Extractor fetches and parses the source page
type Extractor interface {
	Extract(ctx context.Context, sourceURL string) (*extractor.Result, error)
}

// Transformer converts raw records into the bank table
type Transformer interface {
	Transform(records []domain.BankRecord, rates domain.ExchangeRates) (*transform.Result, error)
}

// RateLoader reads the exchange-rate file
type RateLoader func(path string, cols transform.RateColumns) (domain.ExchangeRates, error)

// TableWriter writes the bank table to a flat file
type TableWriter interface {
	WriteBanks(table domain.BankTable, path string) error
}

// WorkbookWriter writes the bank table to a named sheet of a workbook
type WorkbookWriter interface {
	WriteBanks(table domain.BankTable, path, sheet string) error
}

// Database is the relational target of the run
type Database interface {
	Load(ctx context.Context, banks domain.BankTable, table string) error
	RunQuery(ctx context.Context, statement string) (*storage.QueryResult, error)
	io.Closer
}

// DatabaseOpener opens the database at path
type DatabaseOpener func(ctx context.Context, path string) (Database, error)

// ExtractStep fetches the source page and stores the raw records
type ExtractStep struct {
	BaseStage
	extractor Extractor
	url       string
	tracer    *OperationTracer
	logger    *slog.Logger
}

// NewExtractStep creates the extraction step
func NewExtractStep(ext Extractor, url string, tracer *OperationTracer, logger *slog.Logger) *ExtractStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStep{
		BaseStage: NewBaseStage(StepIDExtract, StepNameExtract, PhaseExtracted, ProgressExtract),
		extractor: ext,
		url:       url,
		tracer:    tracer,
		logger:    logger,
	}
}

// Execute runs the extraction
func (s *ExtractStep) Execute(ctx context.Context, state *OperationState) error {
	result, err := s.extractor.Extract(ctx, s.url)
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyRecords, result.Records)
	state.SetContext(ContextKeySkipped, result.Skipped)

	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("rows", result.Rows)
		st.SetMetadata("records", len(result.Records))
		st.SetMetadata("skipped", len(result.Skipped))
	}
	for _, row := range result.Skipped {
		s.logger.InfoContext(ctx, "Skipped",
			slog.String("step", s.ID()),
			slog.Int("row", row.Index),
			slog.Int("cells", row.Cells))
	}
	if s.tracer != nil {
		s.tracer.RecordExtraction(ctx, len(result.Records), len(result.Skipped))
	}
	return nil
}

// TransformStep loads the rate table and converts the extracted records
type TransformStep struct {
	BaseStage
	transformer Transformer
	loadRates   RateLoader
	ratesPath   string
	columns     transform.RateColumns
	tracer      *OperationTracer
	logger      *slog.Logger
}

// NewTransformStep creates the transformation step
func NewTransformStep(t Transformer, loadRates RateLoader, ratesPath string, cols transform.RateColumns, tracer *OperationTracer, logger *slog.Logger) *TransformStep {
	if loadRates == nil {
		loadRates = transform.LoadRates
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransformStep{
		BaseStage:   NewBaseStage(StepIDTransform, StepNameTransform, PhaseTransformed, ProgressTransform),
		transformer: t,
		loadRates:   loadRates,
		ratesPath:   ratesPath,
		columns:     cols,
		tracer:      tracer,
		logger:      logger,
	}
}

// Validate requires extracted records
func (s *TransformStep) Validate(state *OperationState) error {
	_, err := contextValue[[]domain.BankRecord](state, ContextKeyRecords)
	return err
}

// Execute runs the transformation
func (s *TransformStep) Execute(ctx context.Context, state *OperationState) error {
	records, err := contextValue[[]domain.BankRecord](state, ContextKeyRecords)
	if err != nil {
		return err
	}

	rates, err := s.loadRates(s.ratesPath, s.columns)
	if err != nil {
		return err
	}
	state.SetContext(ContextKeyRates, rates)

	result, err := s.transformer.Transform(records, rates)
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyTable, result.Table)
	state.SetContext(ContextKeyFallbacks, result.Fallbacks)

	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("rows", len(result.Table))
		st.SetMetadata("fallbacks", result.Fallbacks)
	}
	for _, code := range result.Fallbacks {
		s.logger.WarnContext(ctx, "Fallback",
			slog.String("step", s.ID()),
			slog.String("currency", code),
			slog.Float64("rate", transform.FallbackRate))
	}
	if s.tracer != nil {
		s.tracer.RecordFallbacks(ctx, result.Fallbacks)
	}
	return nil
}

// WriteCSVStep writes the table to the CSV file and, when configured, to a
// workbook
type WriteCSVStep struct {
	BaseStage
	csv      TableWriter
	path     string
	xlsx     WorkbookWriter
	xlsxPath string
	sheet    string
}

// NewWriteCSVStep creates the flat-file export step. xlsx may be nil.
func NewWriteCSVStep(csv TableWriter, path string, xlsx WorkbookWriter, xlsxPath, sheet string) *WriteCSVStep {
	return &WriteCSVStep{
		BaseStage: NewBaseStage(StepIDWriteCSV, StepNameWriteCSV, PhaseCSVWritten, ProgressWriteCSV),
		csv:       csv,
		path:      path,
		xlsx:      xlsx,
		xlsxPath:  xlsxPath,
		sheet:     sheet,
	}
}

// Validate requires the transformed table
func (s *WriteCSVStep) Validate(state *OperationState) error {
	_, err := contextValue[domain.BankTable](state, ContextKeyTable)
	return err
}

// Execute writes the outputs
func (s *WriteCSVStep) Execute(ctx context.Context, state *OperationState) error {
	table, err := contextValue[domain.BankTable](state, ContextKeyTable)
	if err != nil {
		return err
	}

	if err := s.csv.WriteBanks(table, s.path); err != nil {
		return err
	}
	if s.xlsx != nil && s.xlsxPath != "" {
		if err := s.xlsx.WriteBanks(table, s.xlsxPath, s.sheet); err != nil {
			return err
		}
	}
	return nil
}

// ConnectStep opens the database. The connection is released when the run
// ends.
type ConnectStep struct {
	BaseStage
	open DatabaseOpener
	path string
}

// NewConnectStep creates the connection step
func NewConnectStep(open DatabaseOpener, path string) *ConnectStep {
	return &ConnectStep{
		BaseStage: NewBaseStage(StepIDConnect, StepNameConnect, "", ProgressConnect),
		open:      open,
		path:      path,
	}
}

// Execute opens the connection and registers it for release
func (s *ConnectStep) Execute(ctx context.Context, state *OperationState) error {
	db, err := s.open(ctx, s.path)
	if err != nil {
		return err
	}
	state.AddCloser(db)
	state.SetContext(ContextKeyStore, db)
	return nil
}

// LoadStep replaces the database table with the transformed rows
type LoadStep struct {
	BaseStage
	table string
}

// NewLoadStep creates the load step
func NewLoadStep(table string) *LoadStep {
	return &LoadStep{
		BaseStage: NewBaseStage(StepIDLoad, StepNameLoad, PhaseDBLoaded, ProgressLoad),
		table:     table,
	}
}

// Validate requires the table and an open connection
func (s *LoadStep) Validate(state *OperationState) error {
	if _, err := contextValue[domain.BankTable](state, ContextKeyTable); err != nil {
		return err
	}
	_, err := contextValue[Database](state, ContextKeyStore)
	return err
}

// Execute loads the table
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	table, err := contextValue[domain.BankTable](state, ContextKeyTable)
	if err != nil {
		return err
	}
	db, err := contextValue[Database](state, ContextKeyStore)
	if err != nil {
		return err
	}
	return db.Load(ctx, table, s.table)
}

// QueryStep runs the read-back statements and prints their results
type QueryStep struct {
	BaseStage
	queries []string
	out     io.Writer
}

// NewQueryStep creates the query step. Results are printed to out.
func NewQueryStep(queries []string, out io.Writer) *QueryStep {
	return &QueryStep{
		BaseStage: NewBaseStage(StepIDQueries, StepNameQueries, PhaseQueriesRun, ProgressDone),
		queries:   queries,
		out:       out,
	}
}

// Validate requires an open connection
func (s *QueryStep) Validate(state *OperationState) error {
	_, err := contextValue[Database](state, ContextKeyStore)
	return err
}

// Execute runs every statement in order
func (s *QueryStep) Execute(ctx context.Context, state *OperationState) error {
	db, err := contextValue[Database](state, ContextKeyStore)
	if err != nil {
		return err
	}

	results := make([]*storage.QueryResult, 0, len(s.queries))
	for _, statement := range s.queries {
		result, err := db.RunQuery(ctx, statement)
		if err != nil {
			return err
		}
		if s.out != nil {
			if err := storage.Print(s.out, statement, result); err != nil {
				return apperrors.NewIOError("failed to print query result", err)
			}
		}
		results = append(results, result)
	}

	state.SetContext(ContextKeyResults, results)
	return nil
}

// contextValue fetches a typed value stored by an earlier step
func contextValue[T any](state *OperationState, key string) (T, error) {
	var zero T
	raw, ok := state.GetContext(key)
	if !ok {
		return zero, fmt.Errorf("%s not available", key)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%s has unexpected type %T", key, raw)
	}
	return v, nil
}
