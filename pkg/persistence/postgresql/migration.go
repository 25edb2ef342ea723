package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE run_records (
				id VARCHAR(64) PRIMARY KEY,
				payment_id VARCHAR(64) NOT NULL,
				payment_number VARCHAR(255) NOT NULL DEFAULT '',
				trigger_kind VARCHAR(32) NOT NULL,
				state VARCHAR(32) NOT NULL,
				reason TEXT NOT NULL DEFAULT '',
				logs TEXT NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_run_records_payment_id ON run_records(payment_id);
			CREATE INDEX idx_run_records_state ON run_records(state);
			CREATE INDEX idx_run_records_finished_at ON run_records(finished_at);
		`,
	}
}
