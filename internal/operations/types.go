package operations

// Step identifiers
const (
	StepIDExtract   = "extract"
	StepIDTransform = "transform"
	StepIDWriteCSV  = "write_csv"
	StepIDConnect   = "connect"
	StepIDLoad      = "load"
	StepIDQueries   = "queries"
)

// Step names
const (
	StepNameExtract   = "Data Extraction"
	StepNameTransform = "Data Transformation"
	StepNameWriteCSV  = "CSV Export"
	StepNameConnect   = "Database Connection"
	StepNameLoad      = "Database Load"
	StepNameQueries   = "Read-back Queries"
)

// Progress log messages, one per completed stage
const (
	ProgressStart     = "Preliminaries complete. Initiating ETL process"
	ProgressExtract   = "Data extraction complete. Initiating Transformation process"
	ProgressTransform = "Data transformation complete. Initiating loading process"
	ProgressWriteCSV  = "Data saved to CSV file"
	ProgressConnect   = "SQL Connection initiated."
	ProgressLoad      = "Data loaded to Database as table. Running the query"
	ProgressDone      = "Process Complete."
)

// Context keys for data passed between steps
const (
	ContextKeyRecords   = "records"
	ContextKeySkipped   = "skipped_rows"
	ContextKeyRates     = "exchange_rates"
	ContextKeyTable     = "bank_table"
	ContextKeyFallbacks = "currency_fallbacks"
	ContextKeyStore     = "store"
	ContextKeyResults   = "query_results"
)

// Phase is the position of a run in the ETL state machine
type Phase string

const (
	PhaseStart       Phase = "start"
	PhaseExtracted   Phase = "extracted"
	PhaseTransformed Phase = "transformed"
	PhaseCSVWritten  Phase = "csv_written"
	PhaseDBLoaded    Phase = "db_loaded"
	PhaseQueriesRun  Phase = "queries_run"
	PhaseDone        Phase = "done"
)
