package journal

const stateColumns = `share_reserves, bond_reserves, lp_reserves, base_buffer, bond_buffer,
	share_price, init_share_price, vault_apr, trade_fee_percent, redemption_fee_percent, total_fees,
	long_average_mint_time, short_average_mint_time`

// Decimals are stored as TEXT so they round-trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	day INTEGER NOT NULL,
	block INTEGER NOT NULL,
	time DATETIME NOT NULL,
	market_time TEXT NOT NULL,
	agent INTEGER NOT NULL,
	action TEXT NOT NULL,
	amount TEXT NOT NULL,
	mint_time TEXT,
	fee TEXT NOT NULL,
	spot_price TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL,
	share_reserves TEXT NOT NULL,
	bond_reserves TEXT NOT NULL,
	lp_reserves TEXT NOT NULL,
	base_buffer TEXT NOT NULL,
	bond_buffer TEXT NOT NULL,
	share_price TEXT NOT NULL,
	init_share_price TEXT NOT NULL,
	vault_apr TEXT NOT NULL,
	trade_fee_percent TEXT NOT NULL,
	redemption_fee_percent TEXT NOT NULL,
	total_fees TEXT NOT NULL,
	long_average_mint_time TEXT NOT NULL,
	short_average_mint_time TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run_day ON trades(run_id, day);

CREATE TABLE IF NOT EXISTS days (
	run_id TEXT NOT NULL,
	day INTEGER NOT NULL,
	time DATETIME NOT NULL,
	market_time TEXT NOT NULL,
	day_vault_apr TEXT NOT NULL,
	spot_price TEXT NOT NULL,
	pool_apr TEXT NOT NULL,
	trades INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	share_reserves TEXT NOT NULL,
	bond_reserves TEXT NOT NULL,
	lp_reserves TEXT NOT NULL,
	base_buffer TEXT NOT NULL,
	bond_buffer TEXT NOT NULL,
	share_price TEXT NOT NULL,
	init_share_price TEXT NOT NULL,
	vault_apr TEXT NOT NULL,
	trade_fee_percent TEXT NOT NULL,
	redemption_fee_percent TEXT NOT NULL,
	total_fees TEXT NOT NULL,
	long_average_mint_time TEXT NOT NULL,
	short_average_mint_time TEXT NOT NULL,
	PRIMARY KEY (run_id, day)
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	seed INTEGER NOT NULL,
	pricing_model TEXT NOT NULL,
	days INTEGER NOT NULL,
	blocks_per_day INTEGER NOT NULL,
	agents INTEGER NOT NULL,
	config BLOB,
	trades INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	target_apr TEXT NOT NULL,
	final_apr TEXT NOT NULL,
	final_spot TEXT NOT NULL,
	share_price TEXT NOT NULL,
	liquidity TEXT NOT NULL,
	total_fees TEXT NOT NULL,
	market_closed INTEGER NOT NULL
);
`
