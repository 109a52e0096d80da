// Package config provides the configuration for the bank ETL job.
//
// # Configuration Sources
//
// Configuration is layered from the following sources, lowest priority first:
//
//	1. Default values (Default)
//	2. A YAML file (banketl.yaml, configs/banketl.yaml, or -config)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern BANKETL_<SECTION>_<FIELD>:
//
//	BANKETL_SOURCE_URL=https://example.org/banks.html
//	BANKETL_SOURCE_NAME_COLUMN=1
//	BANKETL_SOURCE_MARKET_CAP_COLUMN=2
//	BANKETL_RATES_PATH=exchange_rate.csv
//	BANKETL_OUTPUT_CSV_PATH=Largest_bank_data.csv
//	BANKETL_DATABASE_PATH=Bank.db
//	BANKETL_DATABASE_TABLE=Largest_banks
//	BANKETL_LOGGING_PROGRESS_FILE=code_log.txt
//	BANKETL_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Validation
//
// Load validates the merged result with struct tags. The table name is
// interpolated into SQL statements, so it must be a plain identifier.
package config
