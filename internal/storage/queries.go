package storage

// Report queries. Each is fixed; the only bind parameter is the inclusive
// lower month bound. The aggregation queries order by month then group, which
// the series pivot depends on.
const (
	listTownsSQL = `SELECT town_id, town_name FROM towns ORDER BY town_id`

	listFlatTypesSQL = `SELECT flat_type_id, flat_type, flat_model FROM flats ORDER BY flat_type_id`

	averagePriceByTownSQL = `
		SELECT
			t.town_name,
			tr.month AS month,
			AVG(tr.resale_price) AS avg_resale_price
		FROM transactions tr
		JOIN blocks b ON tr.block_id = b.block_id
		JOIN towns t ON b.town_id = t.town_id
		WHERE tr.month >= ?
		GROUP BY t.town_name, tr.month
		ORDER BY month ASC, t.town_name ASC`

	averagePriceByFlatTypeSQL = `
		SELECT
			f.flat_type AS flat_type,
			tr.month AS month,
			AVG(tr.resale_price) AS avg_resale_price
		FROM transactions tr
		JOIN flats f ON tr.flat_type_id = f.flat_type_id
		WHERE tr.month >= ?
		GROUP BY f.flat_type, tr.month
		ORDER BY month ASC, f.flat_type ASC`

	transactionVolumeSQL = `
		SELECT tr.month, COUNT(tr.transaction_id) AS total_transactions
		FROM transactions tr
		WHERE tr.month >= ?
		GROUP BY tr.month
		ORDER BY tr.month ASC`
)

// Load queries.
const (
	selectTownSQL     = `SELECT town_id FROM towns WHERE town_name = ?`
	insertTownSQL     = `INSERT INTO towns (town_name) VALUES (?)`
	selectBlockSQL    = `SELECT block_id FROM blocks WHERE town_id = ? AND block = ? AND street_name = ?`
	insertBlockSQL    = `INSERT INTO blocks (town_id, block, street_name) VALUES (?, ?, ?)`
	selectFlatTypeSQL = `SELECT flat_type_id FROM flats WHERE flat_type = ? AND flat_model = ?`
	insertFlatTypeSQL = `INSERT INTO flats (flat_type, flat_model) VALUES (?, ?)`

	insertTransactionSQL = `
		INSERT INTO transactions (
			month, block_id, flat_type_id, storey_range, floor_area_sqm,
			lease_commence_date, remaining_lease, resale_price
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	countTransactionsSQL = `SELECT COUNT(*) FROM transactions`
)

// truncateSQL clears the dataset children first so foreign keys hold.
var truncateSQL = []string{
	`DELETE FROM transactions`,
	`DELETE FROM blocks`,
	`DELETE FROM flats`,
	`DELETE FROM towns`,
}
